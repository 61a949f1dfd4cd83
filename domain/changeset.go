package domain

// ChangeSet records which searchable entities were added, updated or
// deleted inside one relational transaction. It is built while the
// transaction runs and handed to the index synchronization policy only
// after the commit is durable; a rollback discards it. Never persisted.
type ChangeSet struct {
	added   []Searchable
	updated []Searchable
	deleted []Searchable
}

func NewChangeSet() *ChangeSet {
	return &ChangeSet{}
}

func (c *ChangeSet) Add(s Searchable) {
	c.added = append(c.added, s)
}

func (c *ChangeSet) Update(s Searchable) {
	c.updated = append(c.updated, s)
}

func (c *ChangeSet) Delete(s Searchable) {
	c.deleted = append(c.deleted, s)
}

func (c *ChangeSet) Added() []Searchable {
	return c.added
}

func (c *ChangeSet) Updated() []Searchable {
	return c.updated
}

func (c *ChangeSet) Deleted() []Searchable {
	return c.deleted
}

func (c *ChangeSet) Empty() bool {
	return len(c.added) == 0 && len(c.updated) == 0 && len(c.deleted) == 0
}
