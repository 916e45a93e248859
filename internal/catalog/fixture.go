package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Fixture is an in-memory Provider for tests and local development.
// Populate the maps directly or through the Add helpers; reads never mutate.
type Fixture struct {
	Categories  map[uuid.UUID]Category
	Dishes      map[uuid.UUID]Dish
	Sizes       map[uuid.UUID]Size
	DishSizes   map[[2]uuid.UUID]DishSize
	Groups      map[uuid.UUID]AddonGroup
	Items       map[uuid.UUID]AddonItem
	Modifiers   map[uuid.UUID]Modifier
	Assignments map[uuid.UUID][]GroupAssignment
}

// NewFixture creates an empty fixture catalog.
func NewFixture() *Fixture {
	return &Fixture{
		Categories:  make(map[uuid.UUID]Category),
		Dishes:      make(map[uuid.UUID]Dish),
		Sizes:       make(map[uuid.UUID]Size),
		DishSizes:   make(map[[2]uuid.UUID]DishSize),
		Groups:      make(map[uuid.UUID]AddonGroup),
		Items:       make(map[uuid.UUID]AddonItem),
		Modifiers:   make(map[uuid.UUID]Modifier),
		Assignments: make(map[uuid.UUID][]GroupAssignment),
	}
}

func (f *Fixture) AddCategory(c Category) { f.Categories[c.ID] = c }
func (f *Fixture) AddDish(d Dish)         { f.Dishes[d.ID] = d }
func (f *Fixture) AddSize(s Size)         { f.Sizes[s.ID] = s }
func (f *Fixture) AddDishSize(ds DishSize) {
	f.DishSizes[[2]uuid.UUID{ds.DishID, ds.SizeID}] = ds
}
func (f *Fixture) AddGroup(g AddonGroup) { f.Groups[g.ID] = g }
func (f *Fixture) AddItem(it AddonItem)  { f.Items[it.ID] = it }
func (f *Fixture) AddModifier(m Modifier) {
	f.Modifiers[m.GroupID] = m
}
func (f *Fixture) AddAssignment(a GroupAssignment) {
	f.Assignments[a.GroupID] = append(f.Assignments[a.GroupID], a)
}

func (f *Fixture) GetDish(_ context.Context, id uuid.UUID) (Dish, error) {
	d, ok := f.Dishes[id]
	if !ok {
		return Dish{}, ErrNotFound
	}
	return d, nil
}

func (f *Fixture) GetSize(_ context.Context, id uuid.UUID) (Size, error) {
	s, ok := f.Sizes[id]
	if !ok {
		return Size{}, ErrNotFound
	}
	return s, nil
}

func (f *Fixture) GetDishSize(_ context.Context, dishID, sizeID uuid.UUID) (DishSize, error) {
	ds, ok := f.DishSizes[[2]uuid.UUID{dishID, sizeID}]
	if !ok {
		return DishSize{}, ErrNotFound
	}
	return ds, nil
}

func (f *Fixture) GetCategory(_ context.Context, id uuid.UUID) (Category, error) {
	c, ok := f.Categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (f *Fixture) GetAddonGroup(_ context.Context, id uuid.UUID) (AddonGroup, error) {
	g, ok := f.Groups[id]
	if !ok {
		return AddonGroup{}, ErrNotFound
	}
	return g, nil
}

func (f *Fixture) GetAddonItem(_ context.Context, id uuid.UUID) (AddonItem, error) {
	it, ok := f.Items[id]
	if !ok {
		return AddonItem{}, ErrNotFound
	}
	return it, nil
}

func (f *Fixture) GetModifier(_ context.Context, groupID uuid.UUID) (Modifier, error) {
	m, ok := f.Modifiers[groupID]
	if !ok {
		return Modifier{}, ErrNotFound
	}
	return m, nil
}

func (f *Fixture) GetGroupAssignments(_ context.Context, groupID uuid.UUID) ([]GroupAssignment, error) {
	return f.Assignments[groupID], nil
}
