package models

// Member представляет зарегистрированного читателя библиотеки.
type Member struct {
	Username    string // уникальное имя, сравнивается без учёта регистра
	Password    string // bcrypt-хэш пароля
	Email       string // нормализованный адрес (нижний регистр, без пробелов)
	FineBalance int    // текущая задолженность в шекелях, >= 0
}
