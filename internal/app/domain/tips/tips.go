// Package tips serves the short advice cards shown alongside the catalog.
// Like the place catalog, tip reads never fail: the embedded snapshot backs
// the database.
package tips

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/littletrip/littletrip-api/internal/app/models"
	"github.com/littletrip/littletrip-api/internal/pkg/snapshot"
)

var (
	_ Repository = (*RepositoryImpl)(nil)
	_ Service    = (*ServiceImpl)(nil)
)

type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	GetTips(ctx context.Context) ([]models.Tip, error)
	AddTip(ctx context.Context, tip *models.Tip) (string, error)
	DeleteTip(ctx context.Context, id string) error
}

type RepositoryImpl struct {
	logger *zap.Logger
	pgpool PgxPool
}

func NewRepository(pgxpool PgxPool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgxpool}
}

func (r *RepositoryImpl) GetTips(ctx context.Context) ([]models.Tip, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT id, title, description, icon, created_at FROM tips ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("database error fetching tips: %w", err)
	}
	defer rows.Close()

	var tips []models.Tip
	for rows.Next() {
		var t models.Tip
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Icon, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tip row: %w", err)
		}
		tips = append(tips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tip rows: %w", err)
	}
	return tips, nil
}

func (r *RepositoryImpl) AddTip(ctx context.Context, tip *models.Tip) (string, error) {
	var id string
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO tips (title, description, icon) VALUES ($1, $2, $3) RETURNING id`,
		tip.Title, tip.Description, tip.Icon,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("database error inserting tip: %w", err)
	}
	return id, nil
}

func (r *RepositoryImpl) DeleteTip(ctx context.Context, id string) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM tips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("database error deleting tip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tip %s: %w", id, models.ErrNotFound)
	}
	return nil
}

type Service interface {
	GetTips(ctx context.Context) []models.Tip
	AddTip(ctx context.Context, tip *models.Tip) (string, bool)
	DeleteTip(ctx context.Context, id string) bool
}

type ServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{logger: logger, repo: repo}
}

// GetTips returns the tip cards, falling back to the embedded snapshot when
// the database cannot serve them.
func (s *ServiceImpl) GetTips(ctx context.Context) []models.Tip {
	tips, err := s.repo.GetTips(ctx)
	if err == nil {
		return tips
	}
	s.logger.Warn("Falling back to bundled tips", zap.Error(err))
	bundled, serr := snapshot.Tips()
	if serr != nil {
		s.logger.Error("Embedded tips unreadable", zap.Error(serr))
		return []models.Tip{}
	}
	return bundled
}

func (s *ServiceImpl) AddTip(ctx context.Context, tip *models.Tip) (string, bool) {
	id, err := s.repo.AddTip(ctx, tip)
	if err != nil {
		s.logger.Error("Error adding tip", zap.String("title", tip.Title), zap.Error(err))
		return "", false
	}
	return id, true
}

func (s *ServiceImpl) DeleteTip(ctx context.Context, id string) bool {
	if err := s.repo.DeleteTip(ctx, id); err != nil {
		s.logger.Error("Error deleting tip", zap.String("tip_id", id), zap.Error(err))
		return false
	}
	return true
}

type Handlers struct {
	service Service
	logger  *zap.Logger
}

func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

func (h *Handlers) ListTips(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tips": h.service.GetTips(c.Request.Context())})
}

type tipRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Icon        string `json:"icon"`
}

func (h *Handlers) CreateTip(c *gin.Context) {
	var req tipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorMessage("A tip needs a title and a description."))
		return
	}
	tip := models.Tip{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Icon:        req.Icon,
	}
	id, ok := h.service.AddTip(c.Request.Context(), &tip)
	if !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Could not save the tip."))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handlers) DeleteTip(c *gin.Context) {
	if ok := h.service.DeleteTip(c.Request.Context(), c.Param("id")); !ok {
		c.JSON(http.StatusInternalServerError, models.ErrorMessage("Could not delete the tip."))
		return
	}
	c.JSON(http.StatusOK, models.SuccessMessage("Tip deleted."))
}
