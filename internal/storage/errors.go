// Package storage реализует три хранилища системы — каталог носителей,
// реестр читателей и журнал займов — поверх JSON-файлов каталога данных.
//
// Каждое хранилище владеет своей коллекцией в памяти и файлом на диске.
// При загрузке записи проходят конвейер ремонта (пакет schema); если хоть
// одна запись была исправлена, файл сразу переписывается в каноническом
// виде. Все записи на диск атомарны, поэтому сбой посреди записи оставляет
// прежнюю версию файла, а не мусор.
package storage

import "errors"

// Ошибки валидации и согласованности, различаемые вызывающим кодом через
// errors.Is.
var (
	ErrBlankField     = errors.New("required field is blank")
	ErrDuplicateItem  = errors.New("item with the same title or isbn already exists")
	ErrItemNotFound   = errors.New("item not found in catalog")
	ErrMemberNotFound = errors.New("member not found")
	ErrInvalidAmount  = errors.New("invalid payment amount")
)
