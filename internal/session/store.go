package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kotamart/storefront-backend/internal/identity"
	"github.com/kotamart/storefront-backend/internal/users"
)

// Directory is the slice of the user repository the session layer
// needs.
type Directory interface {
	Get(ctx context.Context, uid string) (*users.AppUser, error)
	Create(ctx context.Context, u *users.AppUser) error
	GetOrCreate(ctx context.Context, uid string, defaults users.AppUser) (*users.AppUser, bool, error)
	UpdateProfile(ctx context.Context, uid string, p users.ProfileUpdate) (*users.AppUser, error)
}

const resolveTimeout = 10 * time.Second

// Store owns one client's Session. All writes go through publish; the
// identity provider's change notifications are consumed by a single
// goroutine started in New and stopped by Close.
type Store struct {
	client identity.Client
	dir    Directory

	mu     sync.RWMutex
	cur    Session
	subs   map[uint64]chan Session
	nextID uint64
	closed bool

	done      chan struct{}
	closeOnce sync.Once
}

func New(client identity.Client, dir Directory) *Store {
	s := &Store{
		client: client,
		dir:    dir,
		cur:    Session{Loading: true},
		subs:   make(map[uint64]chan Session),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// run mirrors the provider's initial state, then applies change
// notifications until the store is closed.
func (s *Store) run() {
	if id := s.client.Current(); id != nil {
		s.resolve(id)
	} else {
		s.publish(Session{})
	}

	for {
		select {
		case <-s.done:
			return
		case ch, ok := <-s.client.Changes():
			if !ok {
				return
			}
			if ch.Identity == nil {
				s.publish(Session{})
				continue
			}
			s.resolve(ch.Identity)
		}
	}
}

// resolve fetches (or lazily creates) the profile record for an
// identity and publishes the combined session. A fetch failure
// publishes an empty session so the route guard falls back to the
// login route instead of wedging.
func (s *Store) resolve(id *identity.Identity) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	u, created, err := s.dir.GetOrCreate(ctx, id.UID, *users.NewCustomer(id.UID, id.Email, ""))
	if err != nil {
		log.Printf("[session] resolve %s: %v", id.UID, err)
		s.publish(Session{})
		return
	}
	if created {
		log.Printf("[session] created profile record for %s", id.UID)
	}

	s.publish(Session{Identity: id, User: u})
}

// Login verifies credentials with the provider. On success the session
// is populated by the provider's change notification, not here. On
// failure the session carries a user-displayable message, never a raw
// provider code.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.publish(Session{Loading: true})

	if err := s.client.SignIn(ctx, email, password); err != nil {
		s.publish(Session{LastError: identity.UserMessage(err)})
		return err
	}
	return nil
}

// SignUp creates the identity (which also sends the verification
// email) and the matching customer profile record. If the profile
// write fails after the identity exists, the error is surfaced and the
// record is healed lazily on the next sign-in.
func (s *Store) SignUp(ctx context.Context, email, password, name string) error {
	s.publish(Session{Loading: true})

	id, err := s.client.SignUp(ctx, email, password, name)
	if err != nil {
		s.publish(Session{LastError: identity.UserMessage(err)})
		return err
	}

	u := users.NewCustomer(id.UID, id.Email, name)
	if err := s.dir.Create(ctx, u); err != nil {
		s.publish(Session{LastError: identity.UserMessage(identity.ErrUnknown)})
		return fmt.Errorf("create profile for %s: %w", id.UID, err)
	}

	s.publish(Session{Identity: id, User: u})
	return nil
}

// Logout invalidates the provider session. The signed-out change
// notification clears the published session.
func (s *Store) Logout(ctx context.Context) error {
	s.publish(Session{Loading: true})
	return s.client.SignOut(ctx)
}

// Refresh re-fetches the profile record and re-checks the verification
// flag with the provider. Calling it twice with no intervening
// provider change yields an identical session.
func (s *Store) Refresh(ctx context.Context) error {
	id, err := s.client.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reload identity: %w", err)
	}
	if id == nil {
		s.publish(Session{})
		return nil
	}

	u, _, err := s.dir.GetOrCreate(ctx, id.UID, *users.NewCustomer(id.UID, id.Email, ""))
	if err != nil {
		s.publish(Session{})
		return fmt.Errorf("refresh profile %s: %w", id.UID, err)
	}

	s.publish(Session{Identity: id, User: u})
	return nil
}

// SendVerificationEmail re-sends the verification mail for the
// signed-in identity.
func (s *Store) SendVerificationEmail(ctx context.Context) error {
	return s.client.SendVerificationEmail(ctx)
}

func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Subscribe registers a listener. The channel holds the latest session
// only; a slow consumer sees the newest state, not every intermediate
// one.
func (s *Store) Subscribe() (uint64, <-chan Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	ch := make(chan Session, 1)
	ch <- s.cur
	s.subs[id] = ch
	return id, ch
}

func (s *Store) Unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

// Close tears the store down: the provider subscription stops and all
// listeners are released. Part of the disposal contract; a closed
// store publishes nothing further.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.client.Close()

		s.mu.Lock()
		s.closed = true
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.mu.Unlock()
	})
}

func (s *Store) publish(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.cur = sess
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- sess
	}
}
