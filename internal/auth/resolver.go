package auth

import (
	"context"
	"errors"
	"strings"

	"bloglist/internal/domain"
	"bloglist/internal/repository"
)

const reasonInvalidToken = "token missing or invalid"

// AuthorLookup loads an author by id.
type AuthorLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Author, error)
}

// Resolver turns a bearer credential into the acting Author.
type Resolver struct {
	tokens  *TokenManager
	authors AuthorLookup
}

func NewResolver(tokens *TokenManager, authors AuthorLookup) *Resolver {
	return &Resolver{tokens: tokens, authors: authors}
}

// Resolve returns the author named by bearer, or an AuthenticationError.
func (r *Resolver) Resolve(ctx context.Context, bearer string) (*domain.Author, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, &domain.AuthenticationError{Reason: reasonInvalidToken}
	}

	claims, err := r.tokens.Parse(bearer)
	if err != nil {
		return nil, &domain.AuthenticationError{Reason: reasonInvalidToken}
	}

	author, err := r.authors.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &domain.AuthenticationError{Reason: reasonInvalidToken}
		}
		return nil, err
	}
	return author, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
