// Package inventory registers new tools: it allocates the identifier,
// generates barcode and QR codes and stores the record.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/codegen"
	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/repository"
)

var (
	ErrForbidden       = errors.New("not allowed to manage tools in this workshop")
	ErrInvalidWorkshop = errors.New("invalid workshop")
	ErrExhausted       = errors.New("could not allocate a unique code")
)

const maxAttempts = 3

// ToolStore is the persistence the registrar needs.
type ToolStore interface {
	Create(ctx context.Context, tool *models.Tool) error
}

type Registrar struct {
	IDs   repository.IdentifierStore
	Tools ToolStore
	Codes *codegen.Generator
}

func NewRegistrar(ids repository.IdentifierStore, tools ToolStore) *Registrar {
	return &Registrar{IDs: ids, Tools: tools, Codes: codegen.NewGenerator()}
}

type RegisterToolRequest struct {
	Name           string
	Category       string
	Workshop       string
	Status         string
	Room           string
	Shelf          string
	Row            int
	Section        string
	Condition      string
	ImageURL       string
	Notes          string
	LastInspection *time.Time
	NextInspection *time.Time
}

// Preview is what a registration form shows before submit.
type Preview struct {
	ToolID       string `json:"tool_id"`
	Barcode      string `json:"barcode"`
	QRCode       string `json:"qr_code"`
	BarcodeImage string `json:"barcode_image"`
}

func checkWorkshop(session access.User, workshop string) error {
	if !access.CanEditTool(session, workshop) {
		return ErrForbidden
	}
	if !access.Workshop(workshop).Concrete() {
		return fmt.Errorf("%w: %q", ErrInvalidWorkshop, workshop)
	}
	return nil
}

// Preview computes the codes a tool registered now would get, without
// reserving anything.
func (r *Registrar) Preview(ctx context.Context, session access.User, workshop string) (Preview, error) {
	if err := checkWorkshop(session, workshop); err != nil {
		return Preview{}, err
	}
	existing, err := r.IDs.ListIdentifiers(ctx, workshop)
	if err != nil {
		return Preview{}, err
	}
	barcode := r.Codes.GenerateBarcode(workshop)
	img, err := codegen.BarcodeDataURI(barcode)
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		ToolID:       codegen.GenerateToolID(workshop, existing),
		Barcode:      barcode,
		QRCode:       r.Codes.GenerateQRCode(workshop),
		BarcodeImage: img,
	}, nil
}

// Register allocates the next identifier for req.Workshop and stores the
// tool. reservedBy is recorded against the identifier.
func (r *Registrar) Register(ctx context.Context, session access.User, reservedBy string, req RegisterToolRequest) (*models.Tool, error) {
	if err := checkWorkshop(session, req.Workshop); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.New("name is required")
	}

	id, err := r.reserveID(ctx, req.Workshop, reservedBy)
	if err != nil {
		return nil, err
	}

	tool := &models.Tool{
		ID:             id,
		Name:           strings.TrimSpace(req.Name),
		Category:       req.Category,
		Workshop:       req.Workshop,
		Status:         req.Status,
		Room:           req.Room,
		Shelf:          req.Shelf,
		Row:            req.Row,
		Section:        req.Section,
		Condition:      req.Condition,
		ImageURL:       req.ImageURL,
		Notes:          req.Notes,
		QRCode:         r.Codes.GenerateQRCode(req.Workshop),
		LastInspection: req.LastInspection,
		NextInspection: req.NextInspection,
	}
	if tool.Status == "" {
		tool.Status = models.ToolStatusAvailable
	}
	if tool.Condition == "" {
		tool.Condition = models.ConditionExcellent
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		tool.Barcode = r.Codes.GenerateBarcode(req.Workshop)
		err = r.Tools.Create(ctx, tool)
		if err == nil {
			return tool, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: barcode for %s: %v", ErrExhausted, id, err)
}

func (r *Registrar) reserveID(ctx context.Context, workshop, reservedBy string) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		existing, err := r.IDs.ListIdentifiers(ctx, workshop)
		if err != nil {
			return "", err
		}
		id := codegen.GenerateToolID(workshop, existing)
		err = r.IDs.Reserve(ctx, id, workshop, reservedBy)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, repository.ErrIdentifierTaken) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: identifier for %s", ErrExhausted, workshop)
}
