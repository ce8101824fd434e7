package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/thesis-go-api/internal/dto"
	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/repository"
)

// Policy keys understood by the config provider.
const (
	KeyMaxGroupMembers             = "max_group_members"
	KeyMinGroupMembers             = "min_group_members"
	KeyMaxMentorsPerGroup          = "max_mentors_per_group"
	KeyLeaderChangeDeadlineDays    = "leader_change_deadline_days"
	KeyMinChairmanPerCouncil       = "min_chairman_per_council"
	KeyMaxChairmanPerCouncil       = "max_chairman_per_council"
	KeyMinSecretaryPerCouncil      = "min_secretary_per_council"
	KeyMaxSecretaryPerCouncil      = "max_secretary_per_council"
	KeyMinReviewerPerCouncil       = "min_reviewer_per_council"
	KeyMaxReviewerPerCouncil       = "max_reviewer_per_council"
	KeyMaxCouncilMembers           = "max_council_members"
	KeyMaxTopicsPerCouncilSchedule = "max_topics_per_council_schedule"
	KeyScheduleMinSeparationSecs   = "schedule_min_separation_seconds"
)

type policyDefault struct {
	value       int
	description string
}

var policyDefaults = map[string]policyDefault{
	KeyMaxGroupMembers:             {5, "maximum active members in a group"},
	KeyMinGroupMembers:             {4, "minimum members of an auto-created group"},
	KeyMaxMentorsPerGroup:          {2, "maximum mentors assigned to a group"},
	KeyLeaderChangeDeadlineDays:    {7, "days after semester start during which students may change leader"},
	KeyMinChairmanPerCouncil:       {1, "minimum chairmen of a full council"},
	KeyMaxChairmanPerCouncil:       {1, "maximum chairmen of a council"},
	KeyMinSecretaryPerCouncil:      {1, "minimum secretaries of a full council"},
	KeyMaxSecretaryPerCouncil:      {1, "maximum secretaries of a council"},
	KeyMinReviewerPerCouncil:       {3, "minimum reviewers of a full council"},
	KeyMaxReviewerPerCouncil:       {3, "maximum reviewers of a council"},
	KeyMaxCouncilMembers:           {5, "maximum members of a council"},
	KeyMaxTopicsPerCouncilSchedule: {4, "maximum groups in one schedule batch"},
	KeyScheduleMinSeparationSecs:   {1, "minimum seconds between two sessions of a council"},
}

// CouncilQuota bundles the council composition policy.
type CouncilQuota struct {
	MinChairman  int
	MaxChairman  int
	MinSecretary int
	MaxSecretary int
	MinReviewer  int
	MaxReviewer  int
	MaxMembers   int
}

// ConfigProvider supplies tunable policy values backed by stored overrides.
type ConfigProvider interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, actor Actor, key string, payload dto.UpdateConfigRequest) (dto.ConfigEntryResponse, error)
	List(ctx context.Context) ([]dto.ConfigEntryResponse, error)

	MaxGroupMembers(ctx context.Context) int
	MinGroupMembers(ctx context.Context) int
	MaxMentorsPerGroup(ctx context.Context) int
	LeaderChangeDeadlineDays(ctx context.Context) int
	CouncilQuota(ctx context.Context) CouncilQuota
	MaxTopicsPerCouncilSchedule(ctx context.Context) int
	ScheduleMinSeparation(ctx context.Context) time.Duration
}

type configProvider struct {
	repo     repository.SystemConfigRepository
	authz    Authorizer
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewConfigProvider constructs the policy provider. A nil cache reads straight from the database.
func NewConfigProvider(repo repository.SystemConfigRepository, authz Authorizer, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ConfigProvider {
	return &configProvider{
		repo:     repo,
		authz:    authz,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "config_provider").Logger(),
	}
}

func cacheKey(key string) string {
	return "config:" + key
}

// GetValue returns the stored override for key, or an empty string when none exists.
func (p *configProvider) GetValue(ctx context.Context, key string) (string, error) {
	if p.cache != nil {
		cached, err := p.cache.Get(ctx, cacheKey(key)).Result()
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			p.logger.Warn().Err(err).Str("key", key).Msg("failed to read config cache")
		}
	}

	value := ""
	stored, err := p.repo.Get(ctx, key)
	switch {
	case err == nil:
		value = stored.Value
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return "", err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, cacheKey(key), value, p.cacheTTL).Err(); err != nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("failed to store config cache")
		}
	}

	return value, nil
}

func (p *configProvider) SetValue(ctx context.Context, actor Actor, key string, payload dto.UpdateConfigRequest) (dto.ConfigEntryResponse, error) {
	if err := p.authz.Authorize(ctx, actor, nil, models.RoleAdmin); err != nil {
		return dto.ConfigEntryResponse{}, err
	}

	key = strings.TrimSpace(key)
	def, known := policyDefaults[key]
	if !known {
		return dto.ConfigEntryResponse{}, ErrUnknownConfigKey.WithMessage("unknown configuration key %q", key)
	}

	value := strings.TrimSpace(payload.Value)
	if parsed, err := strconv.Atoi(value); err != nil || parsed < 0 {
		return dto.ConfigEntryResponse{}, ErrInvalidConfigValue
	}

	description := strings.TrimSpace(payload.Description)
	if description == "" {
		description = def.description
	}

	updatedBy := actor.ID
	cfg := models.SystemConfig{Key: key, Value: value, Description: description, UpdatedBy: &updatedBy}
	if err := p.repo.Upsert(ctx, &cfg); err != nil {
		return dto.ConfigEntryResponse{}, err
	}

	if p.cache != nil {
		if err := p.cache.Del(ctx, cacheKey(key)).Err(); err != nil {
			p.logger.Warn().Err(err).Str("key", key).Msg("failed to invalidate config cache")
		}
	}

	p.logger.Info().Str("key", key).Str("value", value).Uint("updated_by", actor.ID).Msg("configuration updated")

	return dto.ConfigEntryResponse{
		Key:          key,
		Value:        value,
		DefaultValue: strconv.Itoa(def.value),
		Description:  description,
		Overridden:   true,
	}, nil
}

// List reports every known key with its effective value.
func (p *configProvider) List(ctx context.Context) ([]dto.ConfigEntryResponse, error) {
	stored, err := p.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]models.SystemConfig, len(stored))
	for _, cfg := range stored {
		overrides[cfg.Key] = cfg
	}

	keys := make([]string, 0, len(policyDefaults))
	for key := range policyDefaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]dto.ConfigEntryResponse, 0, len(keys))
	for _, key := range keys {
		def := policyDefaults[key]
		entry := dto.ConfigEntryResponse{
			Key:          key,
			Value:        strconv.Itoa(def.value),
			DefaultValue: strconv.Itoa(def.value),
			Description:  def.description,
		}
		if override, ok := overrides[key]; ok {
			entry.Value = override.Value
			entry.Overridden = true
			if override.Description != "" {
				entry.Description = override.Description
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// intValue resolves key to an integer, falling back to the default on any problem.
func (p *configProvider) intValue(ctx context.Context, key string) int {
	fallback := policyDefaults[key].value

	raw, err := p.GetValue(ctx, key)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("config lookup failed, using default")
		return fallback
	}
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed < 0 {
		p.logger.Warn().Str("key", key).Str("value", raw).Int("default", fallback).Msg("invalid config value, using default")
		return fallback
	}
	return parsed
}

func (p *configProvider) MaxGroupMembers(ctx context.Context) int {
	return p.intValue(ctx, KeyMaxGroupMembers)
}

func (p *configProvider) MinGroupMembers(ctx context.Context) int {
	return p.intValue(ctx, KeyMinGroupMembers)
}

func (p *configProvider) MaxMentorsPerGroup(ctx context.Context) int {
	return p.intValue(ctx, KeyMaxMentorsPerGroup)
}

func (p *configProvider) LeaderChangeDeadlineDays(ctx context.Context) int {
	return p.intValue(ctx, KeyLeaderChangeDeadlineDays)
}

func (p *configProvider) CouncilQuota(ctx context.Context) CouncilQuota {
	return CouncilQuota{
		MinChairman:  p.intValue(ctx, KeyMinChairmanPerCouncil),
		MaxChairman:  p.intValue(ctx, KeyMaxChairmanPerCouncil),
		MinSecretary: p.intValue(ctx, KeyMinSecretaryPerCouncil),
		MaxSecretary: p.intValue(ctx, KeyMaxSecretaryPerCouncil),
		MinReviewer:  p.intValue(ctx, KeyMinReviewerPerCouncil),
		MaxReviewer:  p.intValue(ctx, KeyMaxReviewerPerCouncil),
		MaxMembers:   p.intValue(ctx, KeyMaxCouncilMembers),
	}
}

func (p *configProvider) MaxTopicsPerCouncilSchedule(ctx context.Context) int {
	return p.intValue(ctx, KeyMaxTopicsPerCouncilSchedule)
}

func (p *configProvider) ScheduleMinSeparation(ctx context.Context) time.Duration {
	return time.Duration(p.intValue(ctx, KeyScheduleMinSeparationSecs)) * time.Second
}
