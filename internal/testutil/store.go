package testutil

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/socialdesk/internal/models"
	"github.com/maheshrc27/socialdesk/internal/repository"
)

// Transactor serializes every WithTx call, which stands in for the row locks
// a real transaction would take. The callback receives a nil *sql.Tx.
type Transactor struct {
	mu sync.Mutex
}

func (t *Transactor) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(nil)
}

// Store is an in-memory implementation of every repository interface.
type Store struct {
	mu    sync.Mutex
	clock interface{ Now() time.Time }

	nextID int64

	users         map[int64]models.User
	accounts      map[int64]models.SocialAccount
	posts         map[int64]models.Post
	history       []models.PostingHistory
	conversations map[int64]models.Conversation
	messages      map[int64][]models.Message
}

func NewStore(clock interface{ Now() time.Time }) *Store {
	return &Store{
		clock:         clock,
		users:         map[int64]models.User{},
		accounts:      map[int64]models.SocialAccount{},
		posts:         map[int64]models.Post{},
		conversations: map[int64]models.Conversation{},
		messages:      map[int64][]models.Message{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Users() repository.UserRepository                 { return userStore{s} }
func (s *Store) Accounts() repository.SocialAccountRepository     { return accountStore{s} }
func (s *Store) Posts() repository.PostRepository                 { return postStore{s} }
func (s *Store) History() repository.PostingHistoryRepository     { return historyStore{s} }
func (s *Store) Conversations() repository.ConversationRepository { return conversationStore{s} }

type userStore struct{ s *Store }

func (r userStore) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (r userStore) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, true, nil
		}
	}
	return nil, false, nil
}

func (r userStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r userStore) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return 0, &pq.Error{Code: "23505"}
		}
	}
	user.ID = r.s.id()
	user.CreatedAt = r.s.clock.Now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return user.ID, nil
}

func (r userStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.users[id]
	u.PasswordHash = passwordHash
	r.s.users[id] = u
	return nil
}

func (r userStore) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

type accountStore struct{ s *Store }

func (r accountStore) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sa.ID = r.s.id()
	sa.CreatedAt = r.s.clock.Now()
	sa.UpdatedAt = sa.CreatedAt
	r.s.accounts[sa.ID] = *sa
	return sa.ID, nil
}

func (r accountStore) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sa, ok := r.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &sa, nil
}

func (r accountStore) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.SocialAccount{}
	for _, sa := range r.s.accounts {
		if sa.UserID == userID {
			sa := sa
			out = append(out, &sa)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r accountStore) FindByExternalID(ctx context.Context, platform, externalID string) (*models.SocialAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sa := range r.s.accounts {
		if sa.IsActive && sa.Platform == platform && (sa.AccountID == externalID || sa.PageID == externalID) {
			return &sa, nil
		}
	}
	return nil, nil
}

func (r accountStore) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sa, ok := r.s.accounts[accountID]
	return ok && sa.UserID == userID, nil
}

func (r accountStore) SetActive(ctx context.Context, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sa := r.s.accounts[id]
	sa.IsActive = active
	r.s.accounts[id] = sa
	return nil
}

func (r accountStore) Remove(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.accounts, id)
	return nil
}

func (r accountStore) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.accounts)), nil
}

type postStore struct{ s *Store }

func clonePost(p models.Post) *models.Post {
	p.Hashtags = append(pq.StringArray{}, p.Hashtags...)
	p.MediaURLs = append(pq.StringArray{}, p.MediaURLs...)
	p.SelectedAccounts = append(models.SelectedAccounts{}, p.SelectedAccounts...)
	return &p
}

func (r postStore) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	post.ID = r.s.id()
	post.Version = 1
	post.CreatedAt = r.s.clock.Now()
	post.UpdatedAt = post.CreatedAt
	r.s.posts[post.ID] = *clonePost(*post)
	return post.ID, nil
}

func (r postStore) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (r postStore) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Post{}
	for _, p := range r.s.posts {
		if p.UserID == userID {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledFor.Equal(out[j].ScheduledFor) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledFor.Before(out[j].ScheduledFor)
	})
	return out, nil
}

func (r postStore) GetOwned(ctx context.Context, id, userID int64) (*models.Post, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil || p == nil || p.UserID != userID {
		return nil, err
	}
	return p, nil
}

func (r postStore) LockOwned(ctx context.Context, tx *sql.Tx, id, userID int64) (*models.Post, error) {
	return r.GetOwned(ctx, id, userID)
}

func (r postStore) Lock(ctx context.Context, tx *sql.Tx, id int64) (*models.Post, error) {
	return r.GetByID(ctx, id)
}

func (r postStore) Update(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.posts[post.ID]
	if !ok || stored.Version != post.Version {
		return repository.ErrStaleVersion
	}
	post.Version++
	post.UpdatedAt = r.s.clock.Now()
	r.s.posts[post.ID] = *clonePost(*post)
	return nil
}

func (r postStore) Remove(ctx context.Context, tx *sql.Tx, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.posts, id)
	return nil
}

func (r postStore) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.posts)), nil
}

// SetPostStatus forces a status, as the external publisher would.
func (s *Store) SetPostStatus(id int64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.posts[id]
	p.Status = status
	s.posts[id] = p
}

type historyStore struct{ s *Store }

func (r historyStore) Create(ctx context.Context, tx *sql.Tx, ph *models.PostingHistory) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ph.ID = r.s.id()
	ph.CreatedAt = r.s.clock.Now()
	r.s.history = append(r.s.history, *ph)
	return ph.ID, nil
}

func (r historyStore) ListByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.PostingHistory{}
	for _, ph := range r.s.history {
		if ph.PostID == postID {
			ph := ph
			out = append(out, &ph)
		}
	}
	return out, nil
}

type conversationStore struct{ s *Store }

func (r conversationStore) FindOrCreate(ctx context.Context, tx *sql.Tx, ownerUserID int64, externalUserID, platform string) (*models.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.conversations {
		if c.OwnerUserID == ownerUserID && c.ExternalUserID == externalUserID && c.Platform == platform {
			return &c, nil
		}
	}
	c := models.Conversation{
		ID:             r.s.id(),
		OwnerUserID:    ownerUserID,
		ExternalUserID: externalUserID,
		Platform:       platform,
		Status:         models.ConversationStatusActive,
		CreatedAt:      r.s.clock.Now(),
	}
	c.UpdatedAt = c.CreatedAt
	r.s.conversations[c.ID] = c
	return &c, nil
}

func (r conversationStore) get(id int64) *models.Conversation {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return nil
	}
	return &c
}

func (r conversationStore) Lock(ctx context.Context, tx *sql.Tx, id int64) (*models.Conversation, error) {
	return r.get(id), nil
}

func (r conversationStore) LockOwned(ctx context.Context, tx *sql.Tx, id, ownerUserID int64) (*models.Conversation, error) {
	c := r.get(id)
	if c == nil || c.OwnerUserID != ownerUserID {
		return nil, nil
	}
	return c, nil
}

func (r conversationStore) AppendMessage(ctx context.Context, tx *sql.Tx, msg *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages[msg.ConversationID] = append(r.s.messages[msg.ConversationID], *msg)
	c := r.s.conversations[msg.ConversationID]
	c.UpdatedAt = msg.SentAt
	r.s.conversations[msg.ConversationID] = c
	return nil
}

func (r conversationStore) RecentMessages(ctx context.Context, tx *sql.Tx, conversationID int64, limit int) ([]models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	msgs := r.s.messages[conversationID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]models.Message{}, msgs...), nil
}

func (r conversationStore) SetStatus(ctx context.Context, tx *sql.Tx, id int64, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.s.conversations[id]
	c.Status = status
	r.s.conversations[id] = c
	return nil
}

func (r conversationStore) GetWithMessages(ctx context.Context, id int64) (*models.Conversation, error) {
	c := r.get(id)
	if c == nil {
		return nil, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.Messages = append([]models.Message{}, r.s.messages[id]...)
	return c, nil
}

func (r conversationStore) ListByOwner(ctx context.Context, ownerUserID int64) ([]*models.Conversation, error) {
	r.s.mu.Lock()
	out := []*models.Conversation{}
	for _, c := range r.s.conversations {
		if c.OwnerUserID == ownerUserID {
			c := c
			c.Messages = append([]models.Message{}, r.s.messages[c.ID]...)
			out = append(out, &c)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r conversationStore) Count(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.conversations)), nil
}
