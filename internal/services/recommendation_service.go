// Package services – RecommendationService
//
// This file implements RecommendationService, the entry point of the outfit
// recommender. A generation request flows through:
//
//	load candidates → drop rejected garments → occasion/weather rules
//	  → (veto: not enough garments)
//	  → preferences → per-category selection → score → reasoning → persist
//
// A veto is a regular outcome, not an error. Storage failures propagate.
//
// Ratings record the verdict first; that part must succeed. Learning (on a
// like) and remembering a rejected garment (on a dislike) run afterwards,
// independently, and only log their failures.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include user, occasion, weather, and recommendation identifiers.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-closet-backend/internal/domain"
	"github.com/tbourn/go-closet-backend/internal/outfit"
	"github.com/tbourn/go-closet-backend/internal/repo"
)

// OutcomeStatus tells an outfit apart from an impossible request.
type OutcomeStatus string

const (
	StatusOutfit            OutcomeStatus = "outfit"
	StatusNotEnoughGarments OutcomeStatus = "not_enough_garments"
)

// vetoNoCandidates marks requests where rules passed but no requested
// category had a garment left to choose.
const vetoNoCandidates outfit.VetoReason = "no_candidates"

// Outcome is the result of Generate. Recommendation is set only when Status
// is StatusOutfit; Veto only when it is StatusNotEnoughGarments.
type Outcome struct {
	Status         OutcomeStatus
	Recommendation *Recommendation
	Veto           outfit.VetoReason
}

// OutfitItem is one garment of a recommendation as shown to clients.
type OutfitItem struct {
	GarmentID  string `json:"garment_id"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
	Category   string `json:"category"`
	Color      string `json:"color,omitempty"`
	Style      string `json:"style,omitempty"`
	Season     string `json:"season,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

// Recommendation is a generated (or replayed, or historical) outfit.
type Recommendation struct {
	ID         string            `json:"id"`
	Occasion   string            `json:"occasion"`
	Weather    string            `json:"weather"`
	Score      int               `json:"score"`
	Confidence float64           `json:"confidence"`
	Breakdown  *outfit.Breakdown `json:"breakdown,omitempty"`
	Reasoning  string            `json:"reasoning"`
	Liked      *bool             `json:"liked"`
	Items      []OutfitItem      `json:"items"`
	CreatedAt  time.Time         `json:"created_at"`
}

// RateInput is a user's verdict on a recommendation. GarmentIDs defaults to
// the garments of the recommendation; Occasion and Weather default to the
// context it was generated for.
type RateInput struct {
	UserID            string
	RecommendationID  string
	Liked             bool
	GarmentIDs        []string
	Occasion          string
	Weather           string
	RejectedGarmentID string
	Reason            string
}

// RatingAck acknowledges a rating and reports which side effects ran.
type RatingAck struct {
	RecommendationID  string   `json:"recommendation_id"`
	Liked             bool     `json:"liked"`
	LearningUpdated   bool     `json:"learning_updated"`
	RejectionRecorded bool     `json:"rejection_recorded"`
	FavoriteColors    []string `json:"favorite_colors,omitempty"`
}

// HistoryPage is one page of past recommendations plus rating totals.
type HistoryPage struct {
	Items []Recommendation
	Total int64
	Stats repo.RatingCounts
}

// Stats summarizes how a user interacts with recommendations.
type Stats struct {
	Ratings             repo.RatingCounts         `json:"ratings"`
	ProblematicGarments []repo.ProblematicGarment `json:"problematic_garments"`
	FavoriteOccasions   []repo.OccasionCount      `json:"favorite_occasions"`
	FavoriteColors      []string                  `json:"favorite_colors"`
}

// PreferencesView is the stored taste of a user.
type PreferencesView struct {
	FavoriteColors  []string `json:"favorite_colors"`
	StylePreference *string  `json:"style_preference"`
	Learned         bool     `json:"learned"`
}

// RecommendationService generates outfits and handles their ratings.
type RecommendationService struct {
	// DB holds recommendation history; Store holds the closet and taste.
	DB       *gorm.DB
	Store    CandidateStore
	Learner  *LearningUpdater
	Selector outfit.Selector

	// ProblematicMinRatings is how many ratings a garment needs before it can
	// be reported as problematic.
	ProblematicMinRatings int64
	// StatsLimit caps each list in Stats.
	StatsLimit int
}

// NewRecommendationService wires a service with default limits.
func NewRecommendationService(db *gorm.DB, store CandidateStore, rnd outfit.RandomSource) *RecommendationService {
	return &RecommendationService{
		DB:                    db,
		Store:                 store,
		Learner:               NewLearningUpdater(store),
		Selector:              outfit.Selector{Rand: rnd},
		ProblematicMinRatings: 3,
		StatsLimit:            5,
	}
}

// Generate builds one outfit for userID from the requested categories.
func (s *RecommendationService) Generate(ctx context.Context, userID, occasion, weather string, categoryIDs []string) (Outcome, error) {
	tr := otel.Tracer("services/RecommendationService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("occasion", occasion),
			attribute.String("weather", weather),
			attribute.Int("categories", len(categoryIDs)),
		),
	)
	defer span.End()

	out, err := s.generate(ctx, userID, occasion, weather, categoryIDs)
	switch {
	case err != nil:
		span.RecordError(err)
		outfitsGenerated.WithLabelValues("error").Inc()
	case out.Status == StatusNotEnoughGarments:
		span.SetAttributes(attribute.String("veto", string(out.Veto)))
		outfitsGenerated.WithLabelValues(string(out.Status)).Inc()
		outfitVetoes.WithLabelValues(string(out.Veto)).Inc()
	default:
		outfitsGenerated.WithLabelValues(string(out.Status)).Inc()
		outfitScores.Observe(out.Recommendation.Confidence)
	}
	return out, err
}

func (s *RecommendationService) generate(ctx context.Context, userID, occasion, weather string, categoryIDs []string) (Outcome, error) {
	occ, ok := outfit.ParseOccasion(occasion)
	if !ok {
		return Outcome{}, ErrInvalidOccasion
	}
	wea, ok := outfit.ParseWeather(weather)
	if !ok {
		return Outcome{}, ErrInvalidWeather
	}
	order := uniqueNonEmpty(categoryIDs)
	if len(order) == 0 {
		return Outcome{}, ErrNoCategories
	}
	n, err := repo.CountCategories(ctx, s.DB, order)
	if err != nil {
		return Outcome{}, err
	}
	if n != int64(len(order)) {
		return Outcome{}, ErrUnknownCategory
	}

	cands, err := s.Store.LoadEligibleGarments(ctx, userID, order)
	if err != nil {
		return Outcome{}, fmt.Errorf("load garments: %w", err)
	}
	rejected, err := s.Store.LoadRejectionSet(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load rejections: %w", err)
	}
	cands = outfit.ExcludeIDs(cands, rejected)

	res := outfit.ApplyRules(cands, occ, wea)
	if res.Vetoed {
		return Outcome{Status: StatusNotEnoughGarments, Veto: res.Veto}, nil
	}

	var prefs outfit.Preferences
	p, err := s.Store.LoadPreferences(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load preferences: %w", err)
	}
	if p != nil {
		prefs = *p
	}

	chosen := s.Selector.SelectOutfit(outfit.GroupByCategory(res.Garments, order), prefs)
	if len(chosen) == 0 {
		return Outcome{Status: StatusNotEnoughGarments, Veto: vetoNoCandidates}, nil
	}

	b := outfit.ScoreOutfit(chosen, prefs)
	reasoning := outfit.ComposeReasoning(chosen, occ, wea, b.Final)

	rec := &domain.Recommendation{
		UserID:     userID,
		Occasion:   string(occ),
		Weather:    string(wea),
		Confidence: b.Final,
		Score:      b.Percent(),
		Reasoning:  reasoning,
	}
	for _, c := range chosen {
		rec.Items = append(rec.Items, domain.RecommendationItem{GarmentID: c.ID})
	}
	if err := repo.CreateRecommendation(ctx, s.DB, rec); err != nil {
		return Outcome{}, fmt.Errorf("save recommendation: %w", err)
	}

	view := &Recommendation{
		ID:         rec.ID,
		Occasion:   rec.Occasion,
		Weather:    rec.Weather,
		Score:      rec.Score,
		Confidence: rec.Confidence,
		Breakdown:  &b,
		Reasoning:  rec.Reasoning,
		Items:      make([]OutfitItem, 0, len(chosen)),
		CreatedAt:  rec.CreatedAt,
	}
	for _, c := range chosen {
		view.Items = append(view.Items, itemFromCandidate(c))
	}
	return Outcome{Status: StatusOutfit, Recommendation: view}, nil
}

// Get returns one of userID's recommendations with its garments.
func (s *RecommendationService) Get(ctx context.Context, userID, id string) (*Recommendation, error) {
	tr := otel.Tracer("services/RecommendationService")
	ctx, span := tr.Start(ctx, "Get", trace.WithAttributes(attribute.String("recommendation.id", id)))
	defer span.End()

	rec, err := repo.GetRecommendation(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRecommendationNotFound
	}
	if err != nil {
		return nil, err
	}
	views, err := s.describe(ctx, userID, []domain.Recommendation{*rec})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Replay returns the recommendation previously stored under an idempotency
// key, or nil when the key is unknown or expired.
func (s *RecommendationService) Replay(ctx context.Context, userID, scope, key string) (*Recommendation, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	view, err := s.Get(ctx, userID, rec.RecommendationID)
	if errors.Is(err, ErrRecommendationNotFound) {
		return nil, nil
	}
	return view, err
}

// Remember stores the recommendation produced under an idempotency key. A
// concurrent request that stored the same key first wins silently.
func (s *RecommendationService) Remember(ctx context.Context, userID, scope, key, recommendationID string, status int, ttl time.Duration) error {
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, scope, key, recommendationID, status, ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// Rate records a verdict on a recommendation and triggers learning or a
// garment rejection as appropriate.
func (s *RecommendationService) Rate(ctx context.Context, in RateInput) (*RatingAck, error) {
	tr := otel.Tracer("services/RecommendationService")
	ctx, span := tr.Start(ctx, "Rate",
		trace.WithAttributes(
			attribute.String("user.id", in.UserID),
			attribute.String("recommendation.id", in.RecommendationID),
			attribute.Bool("liked", in.Liked),
		),
	)
	defer span.End()

	rec, err := repo.GetRecommendation(ctx, s.DB, in.RecommendationID, in.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRecommendationNotFound
	}
	if err != nil {
		return nil, err
	}

	// Only the outfit's own garments can be rated or rejected.
	inOutfit := make([]string, 0, len(rec.Items))
	for _, it := range rec.Items {
		inOutfit = append(inOutfit, it.GarmentID)
	}
	garmentIDs := uniqueNonEmpty(in.GarmentIDs)
	for _, id := range garmentIDs {
		if !slices.Contains(inOutfit, id) {
			return nil, fmt.Errorf("%w: %s", ErrGarmentNotInOutfit, id)
		}
	}
	if len(garmentIDs) == 0 {
		garmentIDs = inOutfit
	}
	rejected := strings.TrimSpace(in.RejectedGarmentID)
	if rejected != "" && !slices.Contains(garmentIDs, rejected) {
		return nil, ErrGarmentNotInOutfit
	}
	occasion := firstNonEmpty(in.Occasion, rec.Occasion)
	weather := firstNonEmpty(in.Weather, rec.Weather)

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.SetRecommendationLiked(ctx, tx, rec.ID, in.UserID, in.Liked); err != nil {
			return err
		}
		return repo.UpsertGarmentRatings(ctx, tx, rec.ID, in.UserID, garmentIDs, in.Liked, occasion, weather)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	outfitRatings.WithLabelValues(verdictLabel(in.Liked)).Inc()

	ack := &RatingAck{RecommendationID: rec.ID, Liked: in.Liked}
	lg := loggerFrom(ctx)

	if in.Liked && s.Learner != nil {
		fav, err := s.Learner.Update(ctx, in.UserID)
		if err != nil {
			sideEffectFailures.WithLabelValues("learning").Inc()
			lg.Warn().Err(err).Str("user_id", in.UserID).Msg("preference learning failed")
		} else {
			ack.LearningUpdated = true
			ack.FavoriteColors = colorStrings(fav)
		}
	}

	if !in.Liked && rejected != "" {
		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			reason = "disliked in outfit " + rec.ID
		}
		if err := s.Store.RecordRejection(ctx, in.UserID, rejected, reason); err != nil {
			sideEffectFailures.WithLabelValues("rejection").Inc()
			lg.Warn().Err(err).Str("user_id", in.UserID).Str("garment_id", rejected).Msg("recording rejection failed")
		} else {
			ack.RejectionRecorded = true
		}
	}
	return ack, nil
}

// History returns a page of userID's recommendations, newest first.
func (s *RecommendationService) History(ctx context.Context, userID string, page, pageSize int) (*HistoryPage, error) {
	tr := otel.Tracer("services/RecommendationService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	stats, err := repo.CountRatings(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := &HistoryPage{Items: []Recommendation{}, Total: stats.Total, Stats: stats}
	if stats.Total == 0 {
		return out, nil
	}

	recs, err := repo.ListRecommendationsPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	if out.Items, err = s.describe(ctx, userID, recs); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats aggregates ratings, problematic garments, favorite occasions, and
// favorite colors for userID.
func (s *RecommendationService) Stats(ctx context.Context, userID string) (*Stats, error) {
	tr := otel.Tracer("services/RecommendationService")
	ctx, span := tr.Start(ctx, "Stats", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	limit := s.StatsLimit
	if limit <= 0 {
		limit = 5
	}

	ratings, err := repo.CountRatings(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	probs, err := repo.ProblematicGarments(ctx, s.DB, userID, s.ProblematicMinRatings, limit)
	if err != nil {
		return nil, err
	}
	occ, err := repo.FavoriteOccasions(ctx, s.DB, userID, limit)
	if err != nil {
		return nil, err
	}
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Ratings:             ratings,
		ProblematicGarments: probs,
		FavoriteOccasions:   occ,
		FavoriteColors:      prefs.FavoriteColors,
	}, nil
}

// Preferences returns what is stored about userID's taste. A user with no
// stored preferences gets an empty, unlearned view.
func (s *RecommendationService) Preferences(ctx context.Context, userID string) (*PreferencesView, error) {
	p, err := s.Store.LoadPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &PreferencesView{FavoriteColors: []string{}}
	if p == nil {
		return view, nil
	}
	view.Learned = true
	view.FavoriteColors = colorStrings(p.FavoriteColors)
	if p.FavoriteStyle != "" {
		st := string(p.FavoriteStyle)
		view.StylePreference = &st
	}
	return view, nil
}

// UpdatePreferences lets a user edit their taste by hand. Nil fields keep
// their stored value; labels are normalized and empty colors dropped.
func (s *RecommendationService) UpdatePreferences(ctx context.Context, userID string, colors *[]string, style *string) (*PreferencesView, error) {
	tr := otel.Tracer("services/RecommendationService")
	ctx, span := tr.Start(ctx, "UpdatePreferences", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	var cols *[]outfit.Color
	if colors != nil {
		norm := make([]outfit.Color, 0, len(*colors))
		for _, c := range *colors {
			if col := outfit.ParseColor(c); col != "" && !slices.Contains(norm, col) {
				norm = append(norm, col)
			}
		}
		cols = &norm
	}
	var st *outfit.Style
	if style != nil {
		v := outfit.ParseStyle(*style)
		st = &v
	}
	if err := s.Store.UpdatePreferences(ctx, userID, cols, st); err != nil {
		return nil, err
	}
	return s.Preferences(ctx, userID)
}

// describe turns stored recommendations into views, resolving garments in
// one query. Garments deleted since are still described; garments missing
// entirely keep only their ID.
func (s *RecommendationService) describe(ctx context.Context, userID string, recs []domain.Recommendation) ([]Recommendation, error) {
	var ids []string
	for _, r := range recs {
		for _, it := range r.Items {
			ids = append(ids, it.GarmentID)
		}
	}
	gs, err := repo.GarmentsByIDs(ctx, s.DB, userID, uniqueNonEmpty(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Garment, len(gs))
	for _, g := range gs {
		byID[g.ID] = g
	}

	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		v := Recommendation{
			ID:         r.ID,
			Occasion:   r.Occasion,
			Weather:    r.Weather,
			Score:      r.Score,
			Confidence: r.Confidence,
			Reasoning:  r.Reasoning,
			Liked:      r.Liked,
			Items:      make([]OutfitItem, 0, len(r.Items)),
			CreatedAt:  r.CreatedAt,
		}
		for _, it := range r.Items {
			g, ok := byID[it.GarmentID]
			if !ok {
				v.Items = append(v.Items, OutfitItem{GarmentID: it.GarmentID})
				continue
			}
			v.Items = append(v.Items, OutfitItem{
				GarmentID:  g.ID,
				Name:       g.Name,
				CategoryID: g.CategoryID,
				Category:   g.Category.Name,
				Color:      g.Color,
				Style:      g.Style,
				Season:     g.Season,
				ImageURL:   g.ImageURL,
			})
		}
		out = append(out, v)
	}
	return out, nil
}

func itemFromCandidate(c outfit.Candidate) OutfitItem {
	return OutfitItem{
		GarmentID:  c.ID,
		Name:       c.Name,
		CategoryID: c.CategoryID,
		Category:   c.Category,
		Color:      string(c.Color),
		Style:      string(c.Style),
		Season:     string(c.Season),
		ImageURL:   c.ImageURL,
	}
}

// loggerFrom returns the request logger stored in ctx, or the global logger.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

func uniqueNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func colorStrings(cs []outfit.Color) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

func verdictLabel(liked bool) string {
	if liked {
		return "liked"
	}
	return "disliked"
}
