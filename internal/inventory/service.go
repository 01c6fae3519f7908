package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sealworks/seal-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id string) (Item, error)
	Insert(ctx context.Context, item Item) error
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, id string) error
	LowStock(ctx context.Context) ([]Item, error)
	ListTransactions(ctx context.Context, itemID string, limit int) ([]Transaction, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates inventory operations.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// List returns all items.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx)
}

// Get loads an item.
func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	return s.repo.Get(ctx, id)
}

// LowStock lists items at or below their minimum level.
func (s *Service) LowStock(ctx context.Context) ([]Item, error) {
	return s.repo.LowStock(ctx)
}

// Create registers an item. A duplicate natural key yields shared.ErrConflict.
func (s *Service) Create(ctx context.Context, input CreateInput) (Item, error) {
	now := s.now().UTC()
	item := Item{
		ID:              uuid.NewString(),
		MaterialType:    strings.ToUpper(strings.TrimSpace(input.MaterialType)),
		InnerDiameter:   input.InnerDiameter,
		OuterDiameter:   input.OuterDiameter,
		AvailablePieces: input.AvailablePieces,
		MinStockLevel:   DefaultMinStockLevel,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.MinStockLevel != nil {
		item.MinStockLevel = *input.MinStockLevel
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Update edits thresholds and notes.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if input.MinStockLevel != nil {
		item.MinStockLevel = *input.MinStockLevel
	}
	if input.Notes != nil {
		item.Notes = *input.Notes
	}
	item.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Delete removes an item. Its transactions are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Transactions lists movements, optionally for one item.
func (s *Service) Transactions(ctx context.Context, itemID string, limit int) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, itemID, limit)
}

// PostMovement applies an in/out movement under a row lock.
// An out movement beyond the available pieces fails with ErrNegativeStock.
func (s *Service) PostMovement(ctx context.Context, input MovementInput) (Transaction, error) {
	return s.post(ctx, func(ctx context.Context, tx TxRepository) (Item, error) {
		return tx.GetItemForUpdate(ctx, input.InventoryItemID)
	}, input)
}

// ConsumePieces books pieces out of the item matching the geometry.
func (s *Service) ConsumePieces(ctx context.Context, materialType string, inner, outer float64, pieces int, referenceID, reason string) error {
	key := Key{MaterialType: strings.ToUpper(materialType), InnerDiameter: inner, OuterDiameter: outer}
	_, err := s.post(ctx, func(ctx context.Context, tx TxRepository) (Item, error) {
		return tx.FindByKeyForUpdate(ctx, key)
	}, MovementInput{
		TransactionType: TransactionTypeOut,
		Pieces:          pieces,
		Reason:          reason,
		ReferenceID:     referenceID,
	})
	return err
}

func (s *Service) post(ctx context.Context, lock func(context.Context, TxRepository) (Item, error), input MovementInput) (Transaction, error) {
	if input.Pieces <= 0 {
		return Transaction{}, ErrInvalidQuantity
	}
	var delta int
	switch input.TransactionType {
	case TransactionTypeIn:
		delta = input.Pieces
	case TransactionTypeOut:
		delta = -input.Pieces
	default:
		return Transaction{}, ErrUnsupportedType
	}

	var entry Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := lock(ctx, tx)
		if err != nil {
			return err
		}
		remaining := item.AvailablePieces + delta
		if remaining < 0 {
			return fmt.Errorf("%w: %d available, %d requested", ErrNegativeStock, item.AvailablePieces, input.Pieces)
		}
		now := s.now().UTC()
		if err := tx.SetPieces(ctx, item.ID, remaining, now); err != nil {
			return err
		}
		entry = Transaction{
			ID:              uuid.NewString(),
			InventoryItemID: item.ID,
			MaterialType:    item.MaterialType,
			InnerDiameter:   item.InnerDiameter,
			OuterDiameter:   item.OuterDiameter,
			TransactionType: input.TransactionType,
			PiecesChange:    delta,
			RemainingPieces: remaining,
			Reason:          input.Reason,
			ReferenceID:     input.ReferenceID,
			Notes:           input.Notes,
			CreatedAt:       now,
		}
		return tx.InsertTransaction(ctx, entry)
	})
	if err != nil {
		return Transaction{}, err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    shared.ActorName(ctx, "system"),
			Action:   fmt.Sprintf("inventory:%s", entry.TransactionType),
			Entity:   "inventory_item",
			EntityID: entry.InventoryItemID,
			Meta: map[string]any{
				"pieces_change":    entry.PiecesChange,
				"remaining_pieces": entry.RemainingPieces,
				"reference_id":     entry.ReferenceID,
			},
			At: entry.CreatedAt,
		}); err != nil {
			s.logger.Warn("audit inventory movement", slog.Any("error", err))
		}
	}
	return entry, nil
}
