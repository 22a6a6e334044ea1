package service

import (
	"context"
	"strings"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/policy"
)

func (s *Service) ListUsers(ctx context.Context, filter domain.UserFilter, page domain.PageRequest) (domain.Page[domain.User], error) {
	if _, err := s.authorize(ctx, policy.UserViewAny, policy.Resource{Kind: "user"}); err != nil {
		return domain.Page[domain.User]{}, err
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.ListUsers(ctx, filter, page)
}

func (s *Service) GetUser(ctx context.Context, id int64) (domain.User, error) {
	if _, err := s.authorize(ctx, policy.UserView, policy.Resource{Kind: "user", ID: id}); err != nil {
		return domain.User{}, err
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	return *user, nil
}
