package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atinyakov/GenomePortal/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser is an account created when the store starts.
type SeedUser struct {
	models.User
	Password string
}

// SeedCollaboration is a collaboration created when the store starts.
type SeedCollaboration struct {
	Title        string
	Description  string
	CreatedAt    time.Time
	Owner        string
	Participants []string
}

// Seed is the initial content of a MemoryStore.
type Seed struct {
	Users          []SeedUser
	Collaborations []SeedCollaboration
}

// DemoSeed returns the demo accounts and collaborations.
func DemoSeed() Seed {
	created := time.Date(2024, time.July, 30, 9, 0, 0, 0, time.UTC)
	return Seed{
		Users: []SeedUser{
			{User: models.User{Email: "demo@genome.com", FirstName: "Demo", LastName: "User", Institution: "Genome Research Institute", Role: "researcher"}, Password: "demo123"},
			{User: models.User{Email: "researcher@genome.com", FirstName: "Dr. Sarah", LastName: "Johnson", Institution: "Harvard Medical School", Role: "researcher"}, Password: "research123"},
			{User: models.User{Email: "admin@genome.com", FirstName: "Admin", LastName: "User", Institution: "Genome Collaboration Center", Role: "admin"}, Password: "admin123"},
		},
		Collaborations: []SeedCollaboration{
			{
				Title: "Multi-Center Eye Color Study",
				Description: "Collaborative study on genetic determinants of eye color across different populations. " +
					"This study aims to identify genetic variants associated with eye color phenotypes using genome-wide association studies.",
				CreatedAt:    created,
				Owner:        "researcher@genome.com",
				Participants: []string{"demo@genome.com"},
			},
			{
				Title: "Height Genetics Consortium",
				Description: "International collaboration studying height genetics in diverse populations. " +
					"This consortium brings together researchers from multiple institutions to study the genetic basis of height variation.",
				CreatedAt:    created.Add(time.Hour),
				Owner:        "admin@genome.com",
				Participants: []string{"demo@genome.com"},
			},
			{
				Title: "Diabetes Genetics Research",
				Description: "Study of genetic risk factors for Type 2 diabetes. " +
					"This research focuses on identifying genetic variants that contribute to diabetes risk and understanding their biological mechanisms.",
				CreatedAt:    created.Add(2 * time.Hour),
				Owner:        "researcher@genome.com",
				Participants: []string{"demo@genome.com", "admin@genome.com"},
			},
		},
	}
}

// MemoryStore keeps every record in process memory. It implements the
// same operations as the postgres repositories plus token revocation.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[int64]models.User
	byEmail      map[string]int64
	collabs      map[string]models.Collaboration
	participants map[int64]map[int64]bool
	analyses     []models.AnalysisRun
	revoked      map[string]time.Time
	nextUserID   int64
	nextCollabID int64
	now          func() time.Time
}

// NewMemoryStore builds a store holding seed. Seed passwords are hashed
// with cost.
func NewMemoryStore(seed Seed, cost int) (*MemoryStore, error) {
	s := &MemoryStore{
		users:        map[int64]models.User{},
		byEmail:      map[string]int64{},
		collabs:      map[string]models.Collaboration{},
		participants: map[int64]map[int64]bool{},
		revoked:      map[string]time.Time{},
		now:          time.Now,
	}
	ctx := context.Background()
	for _, su := range seed.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		u := su.User
		u.PasswordHash = hash
		if _, err := s.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	for _, sc := range seed.Collaborations {
		owner, err := s.UserByEmail(ctx, sc.Owner)
		if err != nil {
			return nil, fmt.Errorf("seed collaboration owner %s: %w", sc.Owner, err)
		}
		c, err := s.CreateCollaboration(ctx, owner.ID, models.NewCollaboration{Title: sc.Title, Description: sc.Description})
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		c.CreatedAt = sc.CreatedAt
		s.collabs[c.UUID] = c
		for _, email := range sc.Participants {
			id, ok := s.byEmail[strings.ToLower(email)]
			if !ok {
				s.mu.Unlock()
				return nil, fmt.Errorf("seed participant %s: %w", email, ErrNotFound)
			}
			s.participants[c.ID][id] = true
		}
		s.mu.Unlock()
	}
	return s, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.byEmail[key]; ok {
		return models.User{}, ErrEmailTaken
	}
	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	s.byEmail[key] = u.ID
	return u, nil
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) UserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id int64, upd models.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	u.FirstName, u.LastName, u.Institution = upd.FirstName, upd.LastName, upd.Institution
	s.users[id] = u
	return u, nil
}

func (s *MemoryStore) CreateCollaboration(_ context.Context, ownerID int64, nc models.NewCollaboration) (models.Collaboration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[ownerID]; !ok {
		return models.Collaboration{}, ErrNotFound
	}
	s.nextCollabID++
	c := models.Collaboration{
		ID:          s.nextCollabID,
		UUID:        uuid.NewString(),
		Title:       nc.Title,
		Description: nc.Description,
		Status:      models.CollaborationStatusActive,
		CreatedAt:   s.now(),
		OwnerID:     ownerID,
	}
	s.collabs[c.UUID] = c
	s.participants[c.ID] = map[int64]bool{ownerID: true}
	return c, nil
}

func (s *MemoryStore) CollaborationByUUID(_ context.Context, id string) (models.Collaboration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collabs[id]
	if !ok {
		return models.Collaboration{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) IsParticipant(_ context.Context, collaborationID, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participants[collaborationID][userID], nil
}

func (s *MemoryStore) CollaborationsByUser(_ context.Context, userID int64) ([]models.Collaboration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := []models.Collaboration{}
	for _, c := range s.collabs {
		if c.OwnerID == userID || s.participants[c.ID][userID] {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *MemoryStore) RecordAnalysis(_ context.Context, run models.AnalysisRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses = append(s.analyses, run)
	return nil
}

// Analyses returns every recorded analysis run.
func (s *MemoryStore) Analyses() []models.AnalysisRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AnalysisRun(nil), s.analyses...)
}

func (s *MemoryStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	if expiresAt.After(now) {
		s.revoked[jti] = expiresAt
	}
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.revoked[jti]
	return ok && exp.After(s.now()), nil
}
