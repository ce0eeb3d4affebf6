package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/shaharge/library-circulation/internal/lib/sl"
	"github.com/shaharge/library-circulation/internal/models"
	"github.com/shaharge/library-circulation/internal/schema"
	"github.com/shaharge/library-circulation/internal/storage/jsonfile"
)

// Имена файлов каталога данных.
const (
	BooksFile = "books.json"
	CDsFile   = "cds.json"
	UsersFile = "users.json"
	LoansFile = "loans.json"
)

// Catalog хранилище носителей. Книги и CD живут в одном списке в памяти
// и раскладываются по books.json и cds.json при сохранении.
type Catalog struct {
	mu        sync.RWMutex
	booksPath string
	cdsPath   string
	items     []*models.Media
	log       *slog.Logger
}

// OpenCatalog загружает каталог из каталога данных, ремонтируя записи
// старых форматов. Исправленные файлы сразу переписываются канонически.
func OpenCatalog(dataDir string, log *slog.Logger) (*Catalog, error) {
	const op = "storage.OpenCatalog"

	c := &Catalog{
		booksPath: filepath.Join(dataDir, BooksFile),
		cdsPath:   filepath.Join(dataDir, CDsFile),
		log:       log,
	}
	for _, path := range []string{c.booksPath, c.cdsPath} {
		if err := c.loadFile(path); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return c, nil
}

func (c *Catalog) loadFile(path string) error {
	data, err := jsonfile.Load(path)
	if err != nil {
		return err
	}
	records, dirty, err := schema.DecodeArray(data)
	if err != nil {
		return err
	}

	var loaded []*models.Media
	for _, raw := range records {
		rec, modified, err := schema.RepairMedia(raw)
		if err != nil {
			// запись, не являющуюся объектом, восстановить нечем
			c.log.Warn("dropping unreadable catalog record",
				slog.String("file", path), sl.Err(err))
			dirty = true
			continue
		}
		dirty = dirty || modified
		loaded = append(loaded, rec.ToModel())
	}
	c.items = append(c.items, loaded...)

	if dirty {
		c.log.Info("catalog file repaired, rewriting canonical form", slog.String("file", path))
		return c.saveLocked()
	}
	return nil
}

// Add добавляет носитель в каталог. Отклоняет записи с пустыми
// обязательными полями и дубликаты по названию или ISBN (без учёта
// регистра и крайних пробелов). Количество по умолчанию — один экземпляр.
func (c *Catalog) Add(item *models.Media) error {
	const op = "storage.Catalog.Add"

	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%s: title: %w", op, ErrBlankField)
	}
	switch item.Kind {
	case models.KindCD:
		if strings.TrimSpace(item.Artist) == "" {
			return fmt.Errorf("%s: artist: %w", op, ErrBlankField)
		}
	default:
		if strings.TrimSpace(item.Author) == "" {
			return fmt.Errorf("%s: author: %w", op, ErrBlankField)
		}
		if strings.TrimSpace(item.ISBN) == "" {
			return fmt.Errorf("%s: isbn: %w", op, ErrBlankField)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.items {
		if equalTrimmed(existing.Title, item.Title) {
			return fmt.Errorf("%s: %q: %w", op, item.Title, ErrDuplicateItem)
		}
		if item.Kind == models.KindBook && existing.ISBN != "" && equalTrimmed(existing.ISBN, item.ISBN) {
			return fmt.Errorf("%s: isbn %q: %w", op, item.ISBN, ErrDuplicateItem)
		}
	}

	added := *item
	if added.ID == uuid.Nil {
		added.ID = uuid.New()
	}
	if added.Quantity <= 0 {
		added.Quantity = 1
	}

	c.items = append(c.items, &added)
	if err := c.saveLocked(); err != nil {
		c.items = c.items[:len(c.items)-1]
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindByTitle возвращает книги, название которых содержит подстроку
// (без учёта регистра). Пустой список, если совпадений нет.
func (c *Catalog) FindByTitle(title string) []*models.Media {
	return c.findBooks(func(m *models.Media) bool {
		return containsFold(m.Title, title)
	})
}

// FindByAuthor возвращает книги по подстроке имени автора.
func (c *Catalog) FindByAuthor(author string) []*models.Media {
	return c.findBooks(func(m *models.Media) bool {
		return containsFold(m.Author, author)
	})
}

// FindByISBN возвращает книги по подстроке ISBN.
func (c *Catalog) FindByISBN(isbn string) []*models.Media {
	q := strings.TrimSpace(isbn)
	return c.findBooks(func(m *models.Media) bool {
		return containsFold(m.ISBN, q)
	})
}

// SearchCDs возвращает CD по подстроке названия или исполнителя.
func (c *Catalog) SearchCDs(keyword string) []*models.Media {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := []*models.Media{}
	for _, m := range c.items {
		if m.Kind != models.KindCD {
			continue
		}
		if containsFold(m.Title, keyword) || containsFold(m.Artist, keyword) {
			copied := *m
			result = append(result, &copied)
		}
	}
	return result
}

// All возвращает копии всех носителей каталога.
func (c *Catalog) All() []*models.Media {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*models.Media, 0, len(c.items))
	for _, m := range c.items {
		copied := *m
		result = append(result, &copied)
	}
	return result
}

// Resolve находит авторитетную запись каталога для переданного носителя:
// по стабильному идентификатору, а для записей без него — по содержимому.
// Возвращённая копия отражает текущее состояние каталога.
func (c *Catalog) Resolve(item *models.Media) (*models.Media, error) {
	const op = "storage.Catalog.Resolve"

	c.mu.RLock()
	defer c.mu.RUnlock()

	if found := c.resolveLocked(item); found != nil {
		copied := *found
		return &copied, nil
	}
	return nil, fmt.Errorf("%s: %q: %w", op, item.Title, ErrItemNotFound)
}

// AdjustQuantity изменяет количество экземпляров на delta с нижней границей
// ноль и сохраняет каталог. При ошибке записи изменение откатывается.
func (c *Catalog) AdjustQuantity(id uuid.UUID, delta int) error {
	const op = "storage.Catalog.AdjustQuantity"

	c.mu.Lock()
	defer c.mu.Unlock()

	var target *models.Media
	for _, m := range c.items {
		if m.ID == id {
			target = m
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%s: %s: %w", op, id, ErrItemNotFound)
	}

	previous := target.Quantity
	target.Quantity += delta
	if target.Quantity < 0 {
		target.Quantity = 0
	}

	if err := c.saveLocked(); err != nil {
		target.Quantity = previous
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Save принудительно сохраняет оба файла каталога.
func (c *Catalog) Save() error {
	const op = "storage.Catalog.Save"

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.saveLocked(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Catalog) saveLocked() error {
	books := []schema.MediaRecord{}
	cds := []schema.MediaRecord{}
	for _, m := range c.items {
		rec := schema.MediaToRecord(m)
		if m.Kind == models.KindCD {
			cds = append(cds, rec)
		} else {
			books = append(books, rec)
		}
	}

	booksData, err := schema.MarshalCanonical(books)
	if err != nil {
		return err
	}
	cdsData, err := schema.MarshalCanonical(cds)
	if err != nil {
		return err
	}

	if err := jsonfile.WriteAtomic(c.booksPath, booksData); err != nil {
		return err
	}
	return jsonfile.WriteAtomic(c.cdsPath, cdsData)
}

func (c *Catalog) findBooks(match func(*models.Media) bool) []*models.Media {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := []*models.Media{}
	for _, m := range c.items {
		if m.Kind != models.KindBook {
			continue
		}
		if match(m) {
			copied := *m
			result = append(result, &copied)
		}
	}
	return result
}

func (c *Catalog) resolveLocked(item *models.Media) *models.Media {
	if item == nil {
		return nil
	}
	if item.ID != uuid.Nil {
		for _, m := range c.items {
			if m.ID == item.ID {
				return m
			}
		}
	}
	detached := *item
	detached.ID = uuid.Nil // заставить сопоставление по содержимому
	for _, m := range c.items {
		existing := *m
		existing.ID = uuid.Nil
		if existing.Matches(&detached) {
			return m
		}
	}
	return nil
}

func equalTrimmed(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
