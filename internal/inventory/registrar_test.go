package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/zaqqye/toolcrib/internal/access"
	"github.com/zaqqye/toolcrib/internal/codegen"
	"github.com/zaqqye/toolcrib/internal/models"
	"github.com/zaqqye/toolcrib/internal/repository"
)

type fakeTools struct {
	byBarcode map[string]bool
	created   []models.Tool
}

func (f *fakeTools) Create(_ context.Context, tool *models.Tool) error {
	if f.byBarcode == nil {
		f.byBarcode = map[string]bool{}
	}
	if f.byBarcode[tool.Barcode] {
		return fmt.Errorf("%w: barcode", repository.ErrDuplicate)
	}
	f.byBarcode[tool.Barcode] = true
	f.created = append(f.created, *tool)
	return nil
}

// racingStore reports a stale snapshot once, as if another registration
// committed the same identifier in between.
type racingStore struct {
	*repository.MemoryIdentifierStore
	raced bool
}

func (r *racingStore) Reserve(ctx context.Context, id, workshop, by string) error {
	if !r.raced {
		r.raced = true
		_ = r.MemoryIdentifierStore.Reserve(ctx, id, workshop, "someone-else")
		return repository.ErrIdentifierTaken
	}
	return r.MemoryIdentifierStore.Reserve(ctx, id, workshop, by)
}

var supervisorAVT = access.User{Role: access.RoleSupervisor, Workshop: access.WorkshopAviation}

func TestRegisterAllocatesSequentialIDs(t *testing.T) {
	tools := &fakeTools{}
	r := NewRegistrar(repository.NewMemoryIdentifierStore("AVT-001", "AVT-005"), tools)
	ctx := context.Background()

	first, err := r.Register(ctx, supervisorAVT, "SUP-001", RegisterToolRequest{Name: "Rivet Gun", Workshop: "Aviation"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := r.Register(ctx, supervisorAVT, "SUP-001", RegisterToolRequest{Name: "Snips", Workshop: "Aviation"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.ID != "AVT-006" || second.ID != "AVT-007" {
		t.Fatalf("got %s then %s", first.ID, second.ID)
	}
	if first.Status != models.ToolStatusAvailable || first.Condition != models.ConditionExcellent {
		t.Fatalf("defaults not applied: %+v", first)
	}
	if len(first.Barcode) != codegen.BarcodeLength || !strings.HasPrefix(first.Barcode, "10") {
		t.Fatalf("unexpected barcode %q", first.Barcode)
	}
	if !strings.Contains(first.QRCode, "Aviation") {
		t.Fatalf("qr payload %q missing workshop", first.QRCode)
	}
}

func TestRegisterDeniedOutsideWorkshop(t *testing.T) {
	r := NewRegistrar(repository.NewMemoryIdentifierStore(), &fakeTools{})
	_, err := r.Register(context.Background(), supervisorAVT, "SUP-001", RegisterToolRequest{Name: "Lathe", Workshop: "Mechanical"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRegisterRejectsNonConcreteWorkshop(t *testing.T) {
	admin := access.User{Role: access.RoleAdmin, Workshop: access.WorkshopAll}
	r := NewRegistrar(repository.NewMemoryIdentifierStore(), &fakeTools{})
	for _, w := range []string{"", "All", "Welding"} {
		_, err := r.Register(context.Background(), admin, "ADM-001", RegisterToolRequest{Name: "Thing", Workshop: w})
		if !errors.Is(err, ErrInvalidWorkshop) {
			t.Fatalf("workshop %q: expected ErrInvalidWorkshop, got %v", w, err)
		}
	}
}

func TestRegisterRetriesTakenIdentifier(t *testing.T) {
	store := &racingStore{MemoryIdentifierStore: repository.NewMemoryIdentifierStore("MCH-001")}
	r := NewRegistrar(store, &fakeTools{})
	admin := access.User{Role: access.RoleAdmin}
	tool, err := r.Register(context.Background(), admin, "ADM-001", RegisterToolRequest{Name: "Press", Workshop: "Mechanical"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if tool.ID != "MCH-003" {
		t.Fatalf("expected MCH-003 after losing MCH-002, got %s", tool.ID)
	}
}

func TestRegisterRetriesDuplicateBarcode(t *testing.T) {
	tools := &fakeTools{byBarcode: map[string]bool{"300000001111": true}}
	r := NewRegistrar(repository.NewMemoryIdentifierStore(), tools)
	calls := 0
	r.Codes = &codegen.Generator{
		Now: func() time.Time { return time.UnixMilli(1) },
		Digits: func(int) string {
			calls++
			if calls == 1 {
				return "111"
			}
			return "222"
		},
	}
	// The fixed clock yields "0000001" as the time component.
	tool, err := r.Register(context.Background(), access.User{Role: access.RoleAdmin}, "ADM-001", RegisterToolRequest{Name: "Scope", Workshop: "Electrical"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if tool.Barcode != "300000001222" {
		t.Fatalf("expected regenerated barcode, got %s", tool.Barcode)
	}
}

func TestPreviewDoesNotReserve(t *testing.T) {
	store := repository.NewMemoryIdentifierStore("ELC-002")
	r := NewRegistrar(store, &fakeTools{})
	session := access.User{Role: access.RoleStudent, Workshop: access.WorkshopElectrical}
	for i := 0; i < 2; i++ {
		p, err := r.Preview(context.Background(), session, "Electrical")
		if err != nil {
			t.Fatalf("preview: %v", err)
		}
		if p.ToolID != "ELC-003" {
			t.Fatalf("preview %d id = %s", i, p.ToolID)
		}
		if !strings.HasPrefix(p.BarcodeImage, "data:image/png;base64,") {
			t.Fatalf("preview image is not a data uri")
		}
	}
}
