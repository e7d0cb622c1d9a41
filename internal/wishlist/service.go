package wishlist

import (
	"context"

	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"

	"github.com/google/uuid"
)

type Users interface {
	GetWithRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.User, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error)
}

type Profiles interface {
	ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]tutor.Profile, error)
}

type Service interface {
	Add(ctx context.Context, studentID, tutorID uuid.UUID) (*Wishlist, error)
	Remove(ctx context.Context, studentID, tutorID uuid.UUID) (*Wishlist, error)
	Get(ctx context.Context, studentID uuid.UUID) (*Wishlist, error)
}

type service struct {
	repo     Repository
	users    Users
	profiles Profiles
}

func NewService(repo Repository, users Users, profiles Profiles) Service {
	return &service{repo: repo, users: users, profiles: profiles}
}

func (s *service) Add(ctx context.Context, studentID, tutorID uuid.UUID) (*Wishlist, error) {
	if _, err := s.users.GetWithRole(ctx, tutorID, user.RoleTutor); err != nil {
		return nil, err
	}
	if err := s.repo.Add(ctx, studentID, tutorID); err != nil {
		return nil, err
	}
	return s.Get(ctx, studentID)
}

func (s *service) Remove(ctx context.Context, studentID, tutorID uuid.UUID) (*Wishlist, error) {
	if err := s.repo.Remove(ctx, studentID, tutorID); err != nil {
		return nil, err
	}
	return s.Get(ctx, studentID)
}

func (s *service) Get(ctx context.Context, studentID uuid.UUID) (*Wishlist, error) {
	ids, err := s.repo.TutorIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}

	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	usersByID := make(map[uuid.UUID]user.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	profilesByUser := make(map[uuid.UUID]*tutor.Profile, len(profiles))
	for i := range profiles {
		profilesByUser[profiles[i].UserID] = &profiles[i]
	}

	list := &Wishlist{StudentID: studentID, Tutors: make([]Entry, 0, len(ids))}
	for _, id := range ids {
		u, ok := usersByID[id]
		if !ok {
			continue
		}
		list.Tutors = append(list.Tutors, Entry{Tutor: u, Profile: profilesByUser[id]})
	}
	return list, nil
}
