package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/atinyakov/ContactKeeper/internal/models"
	"github.com/atinyakov/ContactKeeper/internal/repository"
)

// memData is an in-memory stand-in for the postgres schema, following the
// same ownership, ordering and cascade rules as the SQL repositories.
type memData struct {
	mu         sync.Mutex
	nextID     int64
	contacts   map[int64]models.Contact
	categories map[int64]models.Category
	links      map[[2]int64]bool // {contactID, categoryID}
}

func newMemData() *memData {
	return &memData{
		contacts:   map[int64]models.Contact{},
		categories: map[int64]models.Category{},
		links:      map[[2]int64]bool{},
	}
}

func (m *memData) id() int64 {
	m.nextID++
	return m.nextID
}

func sortContacts(cs []models.Contact) []models.Contact {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].LastName != cs[j].LastName {
			return cs[i].LastName < cs[j].LastName
		}
		if cs[i].FirstName != cs[j].FirstName {
			return cs[i].FirstName < cs[j].FirstName
		}
		return cs[i].ID < cs[j].ID
	})
	return cs
}

type memContacts struct{ *memData }

func (m memContacts) filter(keep func(models.Contact) bool) []models.Contact {
	out := []models.Contact{}
	for _, c := range m.contacts {
		if keep(c) {
			out = append(out, c)
		}
	}
	return sortContacts(out)
}

func (m memContacts) ListByOwner(_ context.Context, userID string) ([]models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(c models.Contact) bool { return c.OwnerID == userID }), nil
}

func (m memContacts) ListByCategory(_ context.Context, userID string, categoryID int64) ([]models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cat, ok := m.categories[categoryID]
	if !ok || cat.OwnerID != userID {
		return []models.Contact{}, nil
	}
	return m.filter(func(c models.Contact) bool {
		return c.OwnerID == userID && m.links[[2]int64{c.ID, categoryID}]
	}), nil
}

func (m memContacts) SearchByName(_ context.Context, userID, query string) ([]models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	return m.filter(func(c models.Contact) bool {
		return c.OwnerID == userID && strings.Contains(strings.ToLower(c.FullName()), q)
	}), nil
}

func (m memContacts) GetByID(_ context.Context, userID string, id int64) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != userID {
		return nil, repository.ErrNotFound
	}
	for key := range m.links {
		if key[0] == id {
			c.Categories = append(c.Categories, m.categories[key[1]])
		}
	}
	sort.Slice(c.Categories, func(i, j int) bool { return c.Categories[i].Name < c.Categories[j].Name })
	return &c, nil
}

func (m memContacts) Exists(_ context.Context, userID string, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	return ok && c.OwnerID == userID, nil
}

func (m memContacts) Create(_ context.Context, c *models.Contact, categoryIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	c.Version = 1
	stored := *c
	stored.Categories = nil
	m.contacts[c.ID] = stored
	for _, catID := range categoryIDs {
		if cat, ok := m.categories[catID]; ok && cat.OwnerID == c.OwnerID {
			m.links[[2]int64{c.ID, catID}] = true
		}
	}
	return nil
}

func (m memContacts) Update(_ context.Context, c *models.Contact, replaceImage bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.contacts[c.ID]
	if !ok || stored.OwnerID != c.OwnerID || stored.Version != c.Version {
		return repository.ErrConflict
	}
	next := *c
	next.OwnerID = stored.OwnerID
	next.Created = stored.Created
	next.Version = stored.Version + 1
	next.Categories = nil
	if !replaceImage {
		next.ImageData = stored.ImageData
		next.ImageType = stored.ImageType
	}
	m.contacts[c.ID] = next
	c.Version = next.Version
	return nil
}

func (m memContacts) Delete(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OwnerID != userID {
		return repository.ErrNotFound
	}
	delete(m.contacts, id)
	for key := range m.links {
		if key[0] == id {
			delete(m.links, key)
		}
	}
	return nil
}

type memCategories struct{ *memData }

func (m memCategories) ListByOwner(_ context.Context, userID string) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Category{}
	for _, c := range m.categories {
		if c.OwnerID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memCategories) Create(_ context.Context, userID, name string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.OwnerID == userID && c.Name == name {
			return nil, repository.ErrDuplicate
		}
	}
	cat := models.Category{ID: m.id(), OwnerID: userID, Name: name}
	m.categories[cat.ID] = cat
	return &cat, nil
}

func (m memCategories) Delete(_ context.Context, userID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.OwnerID != userID {
		return repository.ErrNotFound
	}
	delete(m.categories, id)
	for key := range m.links {
		if key[1] == id {
			delete(m.links, key)
		}
	}
	return nil
}

func (m memCategories) Exists(_ context.Context, userID string, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	return ok && c.OwnerID == userID, nil
}

func (m memCategories) Link(_ context.Context, userID string, categoryID, contactID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cat, okCat := m.categories[categoryID]
	con, okCon := m.contacts[contactID]
	if okCat && okCon && cat.OwnerID == userID && con.OwnerID == userID {
		m.links[[2]int64{contactID, categoryID}] = true
	}
	return nil
}

func (m memCategories) Unlink(_ context.Context, userID string, categoryID, contactID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if con, ok := m.contacts[contactID]; ok && con.OwnerID == userID {
		delete(m.links, [2]int64{contactID, categoryID})
	}
	return nil
}
