package usecase

import (
	"context"
	"io"
	"sort"
	"time"

	"inkwell/domain"
)

// fakeTxRunner executes fn without a real database and hands back the
// recorded changes, mirroring the commit-then-publish contract.
type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context, changes *domain.ChangeSet) error) (*domain.ChangeSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	changes := domain.NewChangeSet()
	if err := fn(ctx, changes); err != nil {
		return nil, err
	}
	return changes, nil
}

type fakeQueue struct {
	tasks []domain.Task
	err   error
}

func (f *fakeQueue) Enqueue(ctx context.Context, task domain.Task) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

type fakeSearchEngine struct {
	enabled     bool
	queryResult *domain.QueryResult
	queryErr    error
	queried     []string
	indexed     []domain.Searchable
	removed     []int64
	wiped       []string
	ensured     []string
}

func (f *fakeSearchEngine) Enabled() bool { return f.enabled }

func (f *fakeSearchEngine) EnsureIndex(ctx context.Context, namespace string) error {
	f.ensured = append(f.ensured, namespace)
	return nil
}

func (f *fakeSearchEngine) Index(ctx context.Context, s domain.Searchable) error {
	f.indexed = append(f.indexed, s)
	return nil
}

func (f *fakeSearchEngine) Remove(ctx context.Context, namespace string, id int64) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeSearchEngine) Query(ctx context.Context, namespace, phrase string, offset, limit int64) (*domain.QueryResult, error) {
	f.queried = append(f.queried, phrase)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryResult, nil
}

func (f *fakeSearchEngine) WipeIndex(ctx context.Context, namespace string) error {
	f.wiped = append(f.wiped, namespace)
	return nil
}

// fakePostRepo is an in-memory PostRepository.
type fakePostRepo struct {
	posts  map[int64]*domain.Post
	nextID int64
	err    error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[int64]*domain.Post{}}
}

func (f *fakePostRepo) add(post *domain.Post) *domain.Post {
	if post.ID == 0 {
		f.nextID++
		post.ID = f.nextID
	} else if post.ID > f.nextID {
		f.nextID = post.ID
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().Add(time.Duration(post.ID) * time.Second)
	}
	f.posts[post.ID] = post
	return post
}

func (f *fakePostRepo) CreatePost(ctx context.Context, post *domain.Post) error {
	if f.err != nil {
		return f.err
	}
	f.add(post)
	return nil
}

func (f *fakePostRepo) UpdatePost(ctx context.Context, post *domain.Post) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.posts[post.ID]; !ok {
		return domain.ErrNotFound
	}
	f.posts[post.ID] = post
	return nil
}

func (f *fakePostRepo) DeletePost(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) GetPostByID(ctx context.Context, id int64) (*domain.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return post, nil
}

func (f *fakePostRepo) GetPostsByIDs(ctx context.Context, ids []int64) ([]*domain.Post, error) {
	var out []*domain.Post
	for _, id := range ids {
		if post, ok := f.posts[id]; ok {
			out = append(out, post)
		}
	}
	// Deliberately not in request order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePostRepo) sortedDesc() []*domain.Post {
	out := make([]*domain.Post, 0, len(f.posts))
	for _, post := range f.posts {
		out = append(out, post)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakePostRepo) ListPosts(ctx context.Context, page, pageSize int) ([]*domain.Post, int64, error) {
	all := f.sortedDesc()
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*domain.Post{}, int64(len(all)), nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (f *fakePostRepo) IteratePosts(ctx context.Context, lastCreatedAt *time.Time, lastID int64, limit int) ([]*domain.Post, *time.Time, int64, error) {
	var batch []*domain.Post
	for _, post := range f.sortedDesc() {
		if lastCreatedAt != nil {
			if post.CreatedAt.After(*lastCreatedAt) {
				continue
			}
			if post.CreatedAt.Equal(*lastCreatedAt) && post.ID >= lastID {
				continue
			}
		}
		batch = append(batch, post)
		if len(batch) == limit {
			break
		}
	}
	if len(batch) == 0 {
		return nil, lastCreatedAt, lastID, nil
	}
	last := batch[len(batch)-1]
	createdAt := last.CreatedAt
	return batch, &createdAt, last.ID, nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*domain.User{}}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *domain.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return domain.ErrDuplicate
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	user, ok := f.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) UpdateImageFile(ctx context.Context, id int64, imageFile string) error {
	user, ok := f.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.ImageFile = imageFile
	return nil
}

type fakePictureStore struct {
	saved   int
	removed []string
	saveErr error
}

func (f *fakePictureStore) Save(ctx context.Context, r io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saved++
	return "abc123.jpg", nil
}

func (f *fakePictureStore) Remove(ctx context.Context, name string) error {
	f.removed = append(f.removed, name)
	return nil
}
