package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"sort"
	"sync"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/messaging/payloads"
	"github.com/google/uuid"
)

// memStore - общее in-memory состояние для фейков хранилищ.
// WithinTx откатывает все изменения, если fn вернула ошибку.
type memStore struct {
	mu      sync.Mutex
	seq     int64
	recipes map[int64]domain.Recipe
	tax     map[string]map[int64]domain.Tag
	links   map[string]map[int64][]int64

	setImageErr error
}

func newMemStore() *memStore {
	return &memStore{
		recipes: map[int64]domain.Recipe{},
		tax:     map[string]map[int64]domain.Tag{"tag": {}, "ingredient": {}},
		links:   map[string]map[int64][]int64{"tag": {}, "ingredient": {}},
	}
}

type memSnapshot struct {
	seq     int64
	recipes map[int64]domain.Recipe
	tax     map[string]map[int64]domain.Tag
	links   map[string]map[int64][]int64
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		seq:     s.seq,
		recipes: make(map[int64]domain.Recipe, len(s.recipes)),
		tax:     map[string]map[int64]domain.Tag{},
		links:   map[string]map[int64][]int64{},
	}
	for k, v := range s.recipes {
		snap.recipes[k] = v
	}
	for kind, rows := range s.tax {
		snap.tax[kind] = make(map[int64]domain.Tag, len(rows))
		for k, v := range rows {
			snap.tax[kind][k] = v
		}
	}
	for kind, rows := range s.links {
		snap.links[kind] = make(map[int64][]int64, len(rows))
		for k, v := range rows {
			snap.links[kind][k] = slices.Clone(v)
		}
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq, s.recipes, s.tax, s.links = snap.seq, snap.recipes, snap.tax, snap.links
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) taxonomyCount(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tax[kind])
}

// addTaxonomy заводит строку напрямую, минуя use case.
func (s *memStore) addTaxonomy(kind string, owner uuid.UUID, name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.tax[kind][s.seq] = domain.Tag{ID: s.seq, UserID: owner, Name: name}
	return s.seq
}

// memTaxonomy реализует ports.TaxonomyStorage поверх memStore.
type memTaxonomy[T domain.Tag | domain.Ingredient] struct {
	s    *memStore
	kind string
}

func (m memTaxonomy[T]) FindOrCreate(_ context.Context, ownerID uuid.UUID, name string) (*T, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, row := range m.s.tax[m.kind] {
		if row.UserID == ownerID && row.Name == name {
			out := T(row)
			return &out, nil
		}
	}
	m.s.seq++
	row := domain.Tag{ID: m.s.seq, UserID: ownerID, Name: name}
	m.s.tax[m.kind][row.ID] = row
	out := T(row)
	return &out, nil
}

func (m memTaxonomy[T]) Get(_ context.Context, id int64, ownerID uuid.UUID) (*T, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	row, ok := m.s.tax[m.kind][id]
	if !ok || row.UserID != ownerID {
		return nil, domain.NotFound(m.kind)
	}
	out := T(row)
	return &out, nil
}

func (m memTaxonomy[T]) ListForOwner(_ context.Context, ownerID uuid.UUID, assignedOnly bool, page domain.Page) ([]T, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var rows []domain.Tag
	for _, row := range m.s.tax[m.kind] {
		if row.UserID != ownerID {
			continue
		}
		if assignedOnly && !m.assigned(row.ID) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name > rows[j].Name
		}
		return rows[i].ID > rows[j].ID
	})

	rows = paginate(rows, page)
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, T(row))
	}
	return out, nil
}

func (m memTaxonomy[T]) assigned(id int64) bool {
	for _, ids := range m.s.links[m.kind] {
		if slices.Contains(ids, id) {
			return true
		}
	}
	return false
}

func (m memTaxonomy[T]) Rename(_ context.Context, id int64, ownerID uuid.UUID, name string) (*T, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	row, ok := m.s.tax[m.kind][id]
	if !ok || row.UserID != ownerID {
		return nil, domain.NotFound(m.kind)
	}
	for _, other := range m.s.tax[m.kind] {
		if other.ID != id && other.UserID == ownerID && other.Name == name {
			return nil, domain.Conflict(m.kind + " with this name already exists")
		}
	}
	row.Name = name
	m.s.tax[m.kind][id] = row
	out := T(row)
	return &out, nil
}

func (m memTaxonomy[T]) Delete(_ context.Context, id int64, ownerID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	row, ok := m.s.tax[m.kind][id]
	if !ok || row.UserID != ownerID {
		return domain.NotFound(m.kind)
	}
	delete(m.s.tax[m.kind], id)
	for recipeID, ids := range m.s.links[m.kind] {
		m.s.links[m.kind][recipeID] = slices.DeleteFunc(ids, func(v int64) bool { return v == id })
	}
	return nil
}

// memRecipes реализует ports.RecipeStorage поверх memStore.
type memRecipes struct {
	s *memStore
}

func (m memRecipes) CreateRecipe(_ context.Context, recipe *domain.Recipe) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	m.s.seq++
	recipe.ID = m.s.seq
	stored := *recipe
	stored.Tags, stored.Ingredients = nil, nil
	m.s.recipes[recipe.ID] = stored
	return nil
}

func (m memRecipes) GetRecipe(_ context.Context, id int64, ownerID uuid.UUID) (*domain.Recipe, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	r, ok := m.s.recipes[id]
	if !ok || r.UserID != ownerID {
		return nil, domain.NotFound("recipe")
	}
	m.loadRelations(&r)
	return &r, nil
}

func (m memRecipes) loadRelations(r *domain.Recipe) {
	r.Tags = []domain.Tag{}
	for _, id := range m.s.links["tag"][r.ID] {
		r.Tags = append(r.Tags, m.s.tax["tag"][id])
	}
	r.Ingredients = []domain.Ingredient{}
	for _, id := range m.s.links["ingredient"][r.ID] {
		r.Ingredients = append(r.Ingredients, domain.Ingredient(m.s.tax["ingredient"][id]))
	}
	sort.Slice(r.Tags, func(i, j int) bool { return r.Tags[i].Name < r.Tags[j].Name })
	sort.Slice(r.Ingredients, func(i, j int) bool { return r.Ingredients[i].Name < r.Ingredients[j].Name })
}

func (m memRecipes) ListRecipes(_ context.Context, ownerID uuid.UUID, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	var out []domain.Recipe
	for _, r := range m.s.recipes {
		if r.UserID != ownerID {
			continue
		}
		if len(filter.TagIDs) > 0 && !overlaps(m.s.links["tag"][r.ID], filter.TagIDs) {
			continue
		}
		if len(filter.IngredientIDs) > 0 && !overlaps(m.s.links["ingredient"][r.ID], filter.IngredientIDs) {
			continue
		}
		m.loadRelations(&r)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, page), nil
}

func (m memRecipes) UpdateRecipe(_ context.Context, recipe *domain.Recipe) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.recipes[recipe.ID]
	if !ok || stored.UserID != recipe.UserID {
		return domain.NotFound("recipe")
	}
	next := *recipe
	next.UserID = stored.UserID
	next.Tags, next.Ingredients = nil, nil
	m.s.recipes[recipe.ID] = next
	return nil
}

func (m memRecipes) DeleteRecipe(_ context.Context, id int64, ownerID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	r, ok := m.s.recipes[id]
	if !ok || r.UserID != ownerID {
		return domain.NotFound("recipe")
	}
	delete(m.s.recipes, id)
	delete(m.s.links["tag"], id)
	delete(m.s.links["ingredient"], id)
	return nil
}

func (m memRecipes) SetImage(_ context.Context, id int64, ownerID uuid.UUID, image string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.setImageErr != nil {
		return m.s.setImageErr
	}
	r, ok := m.s.recipes[id]
	if !ok || r.UserID != ownerID {
		return domain.NotFound("recipe")
	}
	r.Image = image
	m.s.recipes[id] = r
	return nil
}

func (m memRecipes) ReplaceTags(_ context.Context, recipeID int64, tagIDs []int64) error {
	return m.replace("tag", recipeID, tagIDs)
}

func (m memRecipes) ReplaceIngredients(_ context.Context, recipeID int64, ingredientIDs []int64) error {
	return m.replace("ingredient", recipeID, ingredientIDs)
}

// replace, как и SQL-реализация, связывает только строки владельца рецепта.
func (m memRecipes) replace(kind string, recipeID int64, ids []int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	r, ok := m.s.recipes[recipeID]
	if !ok {
		return domain.NotFound("recipe")
	}
	var kept []int64
	for _, id := range ids {
		row, ok := m.s.tax[kind][id]
		if ok && row.UserID == r.UserID && !slices.Contains(kept, id) {
			kept = append(kept, id)
		}
	}
	m.s.links[kind][recipeID] = kept
	return nil
}

func paginate[T any](rows []T, page domain.Page) []T {
	if page.Offset >= len(rows) {
		return []T{}
	}
	rows = rows[page.Offset:]
	if page.Limit > 0 && page.Limit < len(rows) {
		rows = rows[:page.Limit]
	}
	return rows
}

func overlaps(a, b []int64) bool {
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}
	return false
}

// memFiles - фейковое файловое хранилище.
type memFiles struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newMemFiles() *memFiles {
	return &memFiles{objects: map[string][]byte{}}
}

func (f *memFiles) UploadFile(_ context.Context, key string, reader io.Reader, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = buf.Bytes()
	return "http://files/" + key, nil
}

func (f *memFiles) DeleteFile(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return errors.New("no such key")
	}
	delete(f.objects, key)
	return nil
}

// memPublisher запоминает опубликованные задачи очистки.
type memPublisher struct {
	mu       sync.Mutex
	payloads []payloads.ImageCleanupPayload
	err      error
}

func (p *memPublisher) PublishImageCleanup(_ context.Context, payload payloads.ImageCleanupPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

// memUsers реализует ports.UserStorage.
type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]domain.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.Conflict("user with this email already exists")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memUsers) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.NotFound("user")
	}
	return &u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.NotFound("user")
}

func (m *memUsers) UpdateUser(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return domain.NotFound("user")
	}
	m.users[user.ID] = *user
	return nil
}
