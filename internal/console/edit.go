package console

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/tair/inventory-console/internal/product/domain"
)

// ErrNotEditing is returned when no row is being edited
var ErrNotEditing = errors.New("no row is being edited")

// EditState is the state of the edit session
type EditState int

const (
	EditIdle EditState = iota
	EditEditing
	EditSaving
)

func (s EditState) String() string {
	switch s {
	case EditEditing:
		return "editing"
	case EditSaving:
		return "saving"
	default:
		return "idle"
	}
}

// MarshalText renders the state by name in JSON
func (s EditState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EditBuffer is the working copy of one product's editable fields
type EditBuffer struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Stock    int    `json:"stock"`
}

// Patch turns the buffer into a patch that writes every editable field
func (b EditBuffer) Patch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:     &b.Name,
		Image:    &b.Image,
		Unit:     &b.Unit,
		Category: &b.Category,
		Brand:    &b.Brand,
		Stock:    &b.Stock,
	}
}

// Set writes one field by its JSON name. Stock that is not a number becomes 0.
func (b *EditBuffer) Set(field, value string) error {
	switch strings.ToLower(field) {
	case "name":
		b.Name = value
	case "image":
		b.Image = value
	case "unit":
		b.Unit = value
	case "category":
		b.Category = value
	case "brand":
		b.Brand = value
	case "stock":
		b.Stock = CoerceStock(value)
	default:
		return fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, field)
	}
	return nil
}

// CoerceStock parses a stock value typed by an operator
func CoerceStock(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

// EditSession edits one row at a time
type EditSession struct {
	store *Store

	mu    sync.Mutex
	state EditState
	buf   EditBuffer
	gen   uint64
}

func NewEditSession(store *Store) *EditSession {
	return &EditSession{store: store}
}

// Start copies the product into the buffer. Any other row being edited is
// dropped; a save already in flight still reaches the store.
func (e *EditSession) Start(id uint) (EditBuffer, error) {
	p, ok := e.store.Get(id)
	if !ok {
		return EditBuffer{}, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.state = EditEditing
	e.buf = EditBuffer{
		ID:       p.ID,
		Name:     p.Name,
		Image:    p.Image,
		Unit:     p.Unit,
		Category: p.Category,
		Brand:    p.Brand,
		Stock:    p.Stock,
	}
	return e.buf, nil
}

// Set edits a field of the buffer
func (e *EditSession) Set(field, value string) (EditBuffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EditEditing {
		return EditBuffer{}, ErrNotEditing
	}
	if err := e.buf.Set(field, value); err != nil {
		return e.buf, err
	}
	return e.buf, nil
}

// SetAll applies several fields as one change, in field name order. If any
// field is unknown the buffer is left untouched.
func (e *EditSession) SetAll(fields map[string]string) (EditBuffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != EditEditing {
		return EditBuffer{}, ErrNotEditing
	}
	next := e.buf
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		if err := next.Set(field, fields[field]); err != nil {
			return e.buf, err
		}
	}
	e.buf = next
	return e.buf, nil
}

// Cancel discards the buffer without touching the store
func (e *EditSession) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.state = EditIdle
	e.buf = EditBuffer{}
}

// Save sends the buffer through Store.Update and returns to idle
func (e *EditSession) Save(ctx context.Context) (*domain.Product, error) {
	e.mu.Lock()
	if e.state != EditEditing {
		e.mu.Unlock()
		return nil, ErrNotEditing
	}
	e.state = EditSaving
	gen := e.gen
	buf := e.buf
	e.mu.Unlock()

	product, err := e.store.Update(ctx, buf.ID, buf.Patch())

	e.mu.Lock()
	if e.gen == gen {
		e.state = EditIdle
		e.buf = EditBuffer{}
	}
	e.mu.Unlock()
	return product, err
}

// State returns the session state and, unless idle, the buffer
func (e *EditSession) State() (EditState, *EditBuffer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == EditIdle {
		return EditIdle, nil
	}
	buf := e.buf
	return e.state, &buf
}
