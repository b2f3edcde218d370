package service

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"bloglist/internal/auth"
	"bloglist/internal/domain"
	"bloglist/internal/repository"
)

const minPasswordLength = 3

// ErrInvalidCredentials indicates that provided login credentials are incorrect.
var ErrInvalidCredentials = &domain.AuthenticationError{Reason: "invalid username or password"}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username,
			validation.Required.Error("username is required"),
			validation.RuneLength(domain.MinUsernameLength, 0).Error("username is shorter than the minimum allowed length (3)"),
		),
		validation.Field(&in.Password,
			validation.Required.Error("password is required"),
			validation.RuneLength(minPasswordLength, 0).Error("Password must be at least 3 chars long"),
		),
	)
}

// UserService describes author registration and login.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Author, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Author, error)
	Login(ctx context.Context, username, password string) (string, *domain.Author, error)
	GetByID(ctx context.Context, id string) (*domain.Author, error)
	List(ctx context.Context) ([]domain.Author, error)
}

type userService struct {
	authors     repository.AuthorRepository
	credentials auth.Credentials
	tokens      *auth.TokenManager
}

func NewUserService(authors repository.AuthorRepository, credentials auth.Credentials, tokens *auth.TokenManager) UserService {
	return &userService{
		authors:     authors,
		credentials: credentials,
		tokens:      tokens,
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.Author, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)

	if err := fieldError(in.Validate(), "username", "password"); err != nil {
		return nil, err
	}

	hash, err := s.credentials.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	author := &domain.Author{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Name:         in.Name,
		PasswordHash: hash,
		Entries:      []string{},
	}
	if err := s.authors.Create(ctx, author); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &domain.ConflictError{Field: "username"}
		}
		return nil, err
	}

	return sanitizeAuthor(author), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.Author, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	author, err := s.authors.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.credentials.Verify(password, author.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return sanitizeAuthor(author), nil
}

func (s *userService) Login(ctx context.Context, username, password string) (string, *domain.Author, error) {
	author, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.tokens.Issue(author)
	if err != nil {
		return "", nil, err
	}
	return token, author, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.Author, error) {
	author, err := s.authors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.NotFoundError{Kind: "author", ID: id}
		}
		return nil, err
	}
	return sanitizeAuthor(author), nil
}

func (s *userService) List(ctx context.Context) ([]domain.Author, error) {
	authors, err := s.authors.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range authors {
		authors[i] = *sanitizeAuthor(&authors[i])
	}
	return authors, nil
}

func sanitizeAuthor(author *domain.Author) *domain.Author {
	if author == nil {
		return nil
	}
	entries := append([]string{}, author.Entries...)
	return &domain.Author{
		ID:        author.ID,
		Username:  author.Username,
		Name:      author.Name,
		Entries:   entries,
		CreatedAt: author.CreatedAt,
		UpdatedAt: author.UpdatedAt,
	}
}
