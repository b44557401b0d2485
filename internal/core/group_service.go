package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/geo"
	"strive-backend-go/internal/models"
)

// groupService implements the GroupService interface.
type groupService struct {
	groupRepo db.GroupRepository
	userRepo  db.UserRepository
	activity  ActivityService
	logger    *zap.Logger
}

// NewGroupService creates a new GroupService instance.
func NewGroupService(groupRepo db.GroupRepository, userRepo db.UserRepository, activity ActivityService, logger *zap.Logger) GroupService {
	return &groupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		activity:  activity,
		logger:    logger,
	}
}

// NewGroup creates a group with the creator as a member and links it from
// every member's profile.
func (s *groupService) NewGroup(ctx context.Context, creatorID string, req models.CreateGroupRequest) (*models.Group, error) {
	name := strings.TrimSpace(req.Name)
	title := strings.TrimSpace(req.ChallengeTitle)
	if name == "" || title == "" {
		return nil, fmt.Errorf("%w: group name and challenge title are required", ErrInvalidInput)
	}
	if req.Radius < 0 {
		return nil, fmt.Errorf("%w: radius cannot be negative", ErrInvalidInput)
	}
	if req.Location != nil && !geo.ValidCoordinates(req.Location.Latitude, req.Location.Longitude) {
		return nil, fmt.Errorf("%w: location out of range", ErrInvalidInput)
	}

	members := []string{creatorID}
	for _, m := range req.Members {
		if m != "" && !containsString(members, m) {
			members = append(members, m)
		}
	}

	group := &models.Group{
		Name:           name,
		ChallengeTitle: title,
		Members:        members,
		UpdateDate:     time.Now().UTC(),
		Location:       ToLatLng(req.Location),
		Radius:         req.Radius,
	}
	gid, err := s.groupRepo.Create(ctx, group)
	if err != nil {
		s.logger.Error("Error creating group", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to create group '%s': %w", name, err)
	}

	for _, uid := range members {
		if err := s.AddGroupToMemberGroups(ctx, uid, gid); err != nil {
			if uid != creatorID && errors.Is(err, ErrUserNotFound) {
				s.logger.Warn("Skipping unknown group member", zap.String("gid", gid), zap.String("uid", uid))
				continue
			}
			return nil, err
		}
	}

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		UserID:     creatorID,
		Action:     models.ActionGroupCreate,
		TargetType: "GROUP",
		TargetID:   gid,
		Timestamp:  group.UpdateDate,
		Details:    map[string]interface{}{"name": name, "members": len(members)},
	})
	return group, nil
}

func (s *groupService) GetGroup(ctx context.Context, gid string) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, gid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: group with ID '%s'", ErrGroupNotFound, gid)
		}
		s.logger.Error("Error getting group", zap.String("gid", gid), zap.Error(err))
		return nil, fmt.Errorf("failed to get group '%s': %w", gid, err)
	}
	return group, nil
}

func (s *groupService) UpdateGroup(ctx context.Context, gid string, updateDate time.Time) error {
	if err := s.groupRepo.SetUpdateDate(ctx, gid, updateDate); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: group with ID '%s'", ErrGroupNotFound, gid)
		}
		s.logger.Error("Error updating group", zap.String("gid", gid), zap.Error(err))
		return fmt.Errorf("failed to update group '%s': %w", gid, err)
	}
	return nil
}

func (s *groupService) AddGroupToMemberGroups(ctx context.Context, uid, gid string) error {
	if err := s.userRepo.AddGroup(ctx, uid, gid); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, uid)
		}
		s.logger.Error("Error adding group to user", zap.String("uid", uid), zap.String("gid", gid), zap.Error(err))
		return fmt.Errorf("failed to add group '%s' to user '%s': %w", gid, uid, err)
	}
	return nil
}

// JoinGroup adds uid to the group's members and the group to uid's groups.
func (s *groupService) JoinGroup(ctx context.Context, gid, uid string) (*models.Group, error) {
	group, err := s.GetGroup(ctx, gid)
	if err != nil {
		return nil, err
	}
	if !containsString(group.Members, uid) {
		if err := s.groupRepo.AddMember(ctx, gid, uid); err != nil {
			s.logger.Error("Error adding group member", zap.String("gid", gid), zap.String("uid", uid), zap.Error(err))
			return nil, fmt.Errorf("failed to add '%s' to group '%s': %w", uid, gid, err)
		}
		group.Members = append(group.Members, uid)
	}
	if err := s.AddGroupToMemberGroups(ctx, uid, gid); err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		UserID:     uid,
		Action:     models.ActionGroupJoin,
		TargetType: "GROUP",
		TargetID:   gid,
		Timestamp:  time.Now().UTC(),
	})
	return group, nil
}

// GetGroupsByUserID resolves the user's group ids. Missing groups are skipped.
func (s *groupService) GetGroupsByUserID(ctx context.Context, uid string) ([]*models.Group, error) {
	user, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return nil, err
	}
	if len(user.Groups) == 0 {
		return []*models.Group{}, nil
	}
	groups, err := s.groupRepo.GetMany(ctx, user.Groups)
	if err != nil {
		s.logger.Error("Error getting groups of user", zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("failed to get groups of user '%s': %w", uid, err)
	}
	return groups, nil
}

func (s *groupService) GetUsersInGroup(ctx context.Context, gid string) ([]*models.User, error) {
	group, err := s.GetGroup(ctx, gid)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetMany(ctx, group.Members)
	if err != nil {
		s.logger.Error("Error getting group members", zap.String("gid", gid), zap.Error(err))
		return nil, fmt.Errorf("failed to get members of group '%s': %w", gid, err)
	}
	return users, nil
}

// OtherGroups lists uid's groups other than gid that have an update date.
func (s *groupService) OtherGroups(ctx context.Context, uid, gid string) ([]*models.Group, error) {
	groups, err := s.GetGroupsByUserID(ctx, uid)
	if err != nil {
		return nil, err
	}
	others := []*models.Group{}
	for _, g := range groups {
		if g.GID != gid && !g.UpdateDate.IsZero() {
			others = append(others, g)
		}
	}
	return others, nil
}

// NearbyGroups lists groups whose area contains the point.
func (s *groupService) NearbyGroups(ctx context.Context, lat, lon float64) ([]*models.Group, error) {
	if !geo.ValidCoordinates(lat, lon) {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	groups, err := s.groupRepo.List(ctx)
	if err != nil {
		s.logger.Error("Error listing groups", zap.Error(err))
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	nearby := []*models.Group{}
	for _, g := range groups {
		if g.Location == nil {
			continue
		}
		if geo.Within(g.Location.Latitude, g.Location.Longitude, g.Radius, lat, lon) {
			nearby = append(nearby, g)
		}
	}
	return nearby, nil
}
