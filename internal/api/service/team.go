package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crewtask/crewtask/internal/api/domain"
	"github.com/crewtask/crewtask/internal/api/store"
	"github.com/crewtask/crewtask/pkg/idx"
	"github.com/crewtask/crewtask/pkg/slogx"
)

const teamNameMaxLength = 100

// TeamService manages teams and their memberships.
type TeamService struct {
	Store store.Store
}

func (s *TeamService) Get(ctx context.Context, teamID string) (domain.Team, error) {
	team, err := s.Store.Teams().GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Team{}, ErrNotFound
		}
		return domain.Team{}, fmt.Errorf("team lookup: %w", err)
	}
	return team, nil
}

func (s *TeamService) List(ctx context.Context) ([]domain.Team, error) {
	teams, err := s.Store.Teams().ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("team list: %w", err)
	}
	return teams, nil
}

// Create makes a new team and enrolls the creator as its lead.
func (s *TeamService) Create(ctx context.Context, name, description, creatorID string) (domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > teamNameMaxLength {
		return domain.Team{}, fmt.Errorf("%w: team name must be 1-%d characters", ErrValidation, teamNameMaxLength)
	}

	team := domain.Team{
		ID:          idx.New().String(),
		Name:        name,
		Description: description,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Teams().CreateTeam(ctx, team); err != nil {
			return err
		}

		lead, err := tx.Roles().GetTeamRoleByName(ctx, domain.TeamRoleLead)
		if err != nil {
			return fmt.Errorf("lead role lookup: %w", err)
		}
		return tx.Teams().UpsertMember(ctx, domain.TeamMember{
			UserID:     creatorID,
			TeamID:     team.ID,
			TeamRoleID: lead.ID,
		})
	})
	if err != nil {
		return domain.Team{}, fmt.Errorf("team create: %w", err)
	}

	slogx.FromContext(ctx).Info("team created", "team_id", team.ID, "name", name)
	return team, nil
}

func (s *TeamService) Update(ctx context.Context, teamID, name, description string) (domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > teamNameMaxLength {
		return domain.Team{}, fmt.Errorf("%w: team name must be 1-%d characters", ErrValidation, teamNameMaxLength)
	}

	team, err := s.Get(ctx, teamID)
	if err != nil {
		return domain.Team{}, err
	}

	team.Name = name
	team.Description = description
	if err := s.Store.Teams().UpdateTeam(ctx, team); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Team{}, ErrNotFound
		}
		return domain.Team{}, fmt.Errorf("team update: %w", err)
	}
	return team, nil
}

func (s *TeamService) Delete(ctx context.Context, teamID string) error {
	if err := s.Store.Teams().DeleteTeam(ctx, teamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("team delete: %w", err)
	}
	slogx.FromContext(ctx).Info("team deleted", "team_id", teamID)
	return nil
}

// AddMember puts a user on a team with the named team role. Re-adding an
// existing member changes their role instead of duplicating the row.
func (s *TeamService) AddMember(ctx context.Context, teamID, userID, roleName string) error {
	role, err := s.Store.Roles().GetTeamRoleByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: unknown team role %q", ErrValidation, roleName)
		}
		return fmt.Errorf("team role lookup: %w", err)
	}

	if _, err := s.Get(ctx, teamID); err != nil {
		return err
	}
	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: unknown user", ErrValidation)
		}
		return fmt.Errorf("user lookup: %w", err)
	}

	return s.Store.Teams().UpsertMember(ctx, domain.TeamMember{
		UserID:     userID,
		TeamID:     teamID,
		TeamRoleID: role.ID,
	})
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID string) error {
	if err := s.Store.Teams().RemoveMember(ctx, teamID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("member remove: %w", err)
	}
	return nil
}

func (s *TeamService) ListMembers(ctx context.Context, teamID string) ([]domain.TeamMember, error) {
	if _, err := s.Get(ctx, teamID); err != nil {
		return nil, err
	}
	members, err := s.Store.Teams().ListMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("member list: %w", err)
	}
	return members, nil
}
