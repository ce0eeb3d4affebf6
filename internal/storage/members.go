package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shaharge/library-circulation/internal/lib/sl"
	"github.com/shaharge/library-circulation/internal/models"
	"github.com/shaharge/library-circulation/internal/schema"
	"github.com/shaharge/library-circulation/internal/storage/jsonfile"
)

// Members хранилище читателей (users.json).
//
// Удаление здесь безусловно: проверки на активные займы и задолженность —
// обязанность вызывающего сервиса, а не хранилища.
type Members struct {
	mu      sync.RWMutex
	path    string
	members []*models.Member
	log     *slog.Logger
}

// OpenMembers загружает реестр читателей, ремонтируя записи старых форматов.
func OpenMembers(dataDir string, log *slog.Logger) (*Members, error) {
	const op = "storage.OpenMembers"

	s := &Members{
		path: filepath.Join(dataDir, UsersFile),
		log:  log,
	}

	data, err := jsonfile.Load(s.path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	records, dirty, err := schema.DecodeArray(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, raw := range records {
		rec, modified, err := schema.RepairUser(raw)
		if err != nil {
			s.log.Warn("dropping unreadable user record", sl.Err(err))
			dirty = true
			continue
		}
		dirty = dirty || modified
		s.members = append(s.members, rec.ToModel())
	}

	if dirty {
		s.log.Info("users file repaired, rewriting canonical form")
		if err := s.saveLocked(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return s, nil
}

// Add добавляет читателя и сохраняет реестр. Уникальность имени проверяет
// вызывающий сервис.
func (s *Members) Add(member *models.Member) error {
	const op = "storage.Members.Add"

	s.mu.Lock()
	defer s.mu.Unlock()

	added := *member
	s.members = append(s.members, &added)
	if err := s.saveLocked(); err != nil {
		s.members = s.members[:len(s.members)-1]
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindByUsername возвращает копию записи читателя по имени без учёта
// регистра, nil если читатель не найден.
func (s *Members) FindByUsername(username string) *models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m := s.findLocked(username); m != nil {
		copied := *m
		return &copied
	}
	return nil
}

// FindByEmail возвращает копию записи читателя по адресу почты без учёта
// регистра, nil если читатель не найден.
func (s *Members) FindByEmail(email string) *models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := schema.SanitizeEmail(email)
	for _, m := range s.members {
		if m.Email == q {
			copied := *m
			return &copied
		}
	}
	return nil
}

// All возвращает копии всех читателей.
func (s *Members) All() []*models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Member, 0, len(s.members))
	for _, m := range s.members {
		copied := *m
		result = append(result, &copied)
	}
	return result
}

// Remove удаляет читателя и сохраняет реестр.
func (s *Members) Remove(username string) error {
	const op = "storage.Members.Remove"

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.members {
		if strings.EqualFold(m.Username, username) {
			before := s.members
			remaining := make([]*models.Member, 0, len(s.members)-1)
			remaining = append(remaining, s.members[:i]...)
			remaining = append(remaining, s.members[i+1:]...)
			s.members = remaining
			if err := s.saveLocked(); err != nil {
				s.members = before
				return fmt.Errorf("%s: %w", op, err)
			}
			return nil
		}
	}
	return fmt.Errorf("%s: %q: %w", op, username, ErrMemberNotFound)
}

// AddFine увеличивает задолженность читателя и сохраняет реестр.
// При ошибке записи изменение откатывается.
func (s *Members) AddFine(username string, amount int) error {
	const op = "storage.Members.AddFine"

	if amount <= 0 {
		return fmt.Errorf("%s: %d: %w", op, amount, ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findLocked(username)
	if m == nil {
		return fmt.Errorf("%s: %q: %w", op, username, ErrMemberNotFound)
	}

	m.FineBalance += amount
	if err := s.saveLocked(); err != nil {
		m.FineBalance -= amount
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ApplyFinePayment уменьшает задолженность на сумму платежа. Платёж
// отклоняется, если сумма не положительна или превышает текущий долг.
func (s *Members) ApplyFinePayment(username string, amount int) error {
	const op = "storage.Members.ApplyFinePayment"

	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findLocked(username)
	if m == nil {
		return fmt.Errorf("%s: %q: %w", op, username, ErrMemberNotFound)
	}
	if amount <= 0 || amount > m.FineBalance {
		return fmt.Errorf("%s: %d: %w", op, amount, ErrInvalidAmount)
	}

	m.FineBalance -= amount
	if err := s.saveLocked(); err != nil {
		m.FineBalance += amount
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Members) findLocked(username string) *models.Member {
	for _, m := range s.members {
		if strings.EqualFold(m.Username, username) {
			return m
		}
	}
	return nil
}

func (s *Members) saveLocked() error {
	records := []schema.UserRecord{}
	for _, m := range s.members {
		records = append(records, schema.MemberToRecord(m))
	}
	data, err := schema.MarshalCanonical(records)
	if err != nil {
		return err
	}
	return jsonfile.WriteAtomic(s.path, data)
}
