package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sealworks/seal-erp/internal/catalog"
	"github.com/sealworks/seal-erp/internal/customers"
	"github.com/sealworks/seal-erp/internal/inventory"
	"github.com/sealworks/seal-erp/internal/materials"
	"github.com/sealworks/seal-erp/internal/shared"
	"github.com/sealworks/seal-erp/internal/suppliers"
	"github.com/sealworks/seal-erp/internal/users"
	"github.com/sealworks/seal-erp/internal/users/userstest"
	"github.com/sealworks/seal-erp/jobs"
)

type stubMigrator struct{ applied []string }

func (s stubMigrator) Migrate(context.Context) ([]string, error) { return s.applied, nil }

type stubQueue struct{ triggered []string }

func (s *stubQueue) Trigger(_ context.Context, taskType string) (*asynq.TaskInfo, error) {
	if _, err := jobs.NewTask(taskType); err != nil {
		return nil, err
	}
	s.triggered = append(s.triggered, taskType)
	return &asynq.TaskInfo{ID: "task-1", Type: taskType, Queue: jobs.QueueDefault}, nil
}

func (s *stubQueue) InspectQueue(context.Context) (QueueStats, error) {
	return QueueStats{Queue: jobs.QueueDefault, Pending: 2}, nil
}

func run(t *testing.T, env *Env, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	env.Stdout = out
	root := NewRootCommand(env)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func noop() {}

func TestMigrateCommand(t *testing.T) {
	env := &Env{OpenMigrate: func(context.Context) (Migrator, func(), error) {
		return stubMigrator{applied: []string{"migrations/0001_init.sql"}}, noop, nil
	}}
	out, err := run(t, env, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "applied migrations/0001_init.sql")

	env.OpenMigrate = func(context.Context) (Migrator, func(), error) { return stubMigrator{}, noop, nil }
	out, err = run(t, env, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "schema up to date")
}

func TestUserCreateCommand(t *testing.T) {
	repo := userstest.NewRepository()
	svc := users.NewService(repo, bcrypt.MinCost)
	env := &Env{OpenUsers: func(context.Context) (UserCreator, func(), error) { return svc, noop, nil }}

	out, err := run(t, env, "user", "create", "--username", "owner", "--password", "owner-pass", "--role", "admin")
	require.NoError(t, err)
	require.Contains(t, out, "created user owner (admin)")

	u, err := svc.FindByUsername(context.Background(), "owner")
	require.NoError(t, err)
	require.Equal(t, shared.RoleAdmin, u.Role)

	_, err = run(t, env, "user", "create", "--username", "owner", "--password", "another-pass")
	require.ErrorIs(t, err, shared.ErrConflict)

	_, err = run(t, env, "user", "create", "--username", "shorty", "--password", "short")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestJobsCommands(t *testing.T) {
	q := &stubQueue{}
	env := &Env{OpenJobs: func() (JobQueue, func(), error) { return q, noop, nil }}

	out, err := run(t, env, "jobs", "trigger", jobs.TaskOpenDailyWorkOrder)
	require.NoError(t, err)
	require.Contains(t, out, "enqueued "+jobs.TaskOpenDailyWorkOrder)
	require.Equal(t, []string{jobs.TaskOpenDailyWorkOrder}, q.triggered)

	_, err = run(t, env, "jobs", "trigger", "reports:nightly")
	var unknown *jobs.UnknownTaskError
	require.True(t, errors.As(err, &unknown))

	out, err = run(t, env, "jobs", "status")
	require.NoError(t, err)
	require.Contains(t, out, "pending=2")
}

type seedRecorder struct {
	customers, suppliers, inventory, materials, products, locals int
	inventoryConflict                                            bool
}

type seedCustomers struct{ *seedRecorder }

func (s seedCustomers) Create(_ context.Context, in customers.Input) (customers.Customer, error) {
	s.customers++
	return customers.Customer{ID: "c", Name: in.Name}, nil
}

type seedSuppliers struct{ *seedRecorder }

func (s seedSuppliers) Create(_ context.Context, in suppliers.Input) (suppliers.Supplier, error) {
	s.suppliers++
	return suppliers.Supplier{ID: "s1", Name: in.Name}, nil
}

type seedInventory struct{ *seedRecorder }

func (s seedInventory) Create(_ context.Context, in inventory.CreateInput) (inventory.Item, error) {
	if s.inventoryConflict {
		return inventory.Item{}, shared.ErrConflict
	}
	s.inventory++
	return inventory.Item{ID: "i"}, nil
}

type seedMaterials struct{ *seedRecorder }

func (s seedMaterials) Create(_ context.Context, in materials.CreateInput) (materials.RawMaterial, error) {
	s.materials++
	return materials.RawMaterial{ID: "m", UnitCode: "N1"}, nil
}

type seedCatalog struct{ *seedRecorder }

func (s seedCatalog) CreateProduct(_ context.Context, in catalog.ProductInput) (catalog.Product, error) {
	s.products++
	return catalog.Product{ID: "p"}, nil
}

func (s seedCatalog) CreateLocal(_ context.Context, in catalog.LocalInput) (catalog.LocalProduct, error) {
	s.locals++
	if in.SupplierID != "s1" {
		return catalog.LocalProduct{}, shared.Invalid("supplier_id", "unexpected")
	}
	return catalog.LocalProduct{ID: "lp"}, nil
}

func newSeedEnv(rec *seedRecorder) *Env {
	seeder := &Seeder{
		Customers: seedCustomers{rec},
		Suppliers: seedSuppliers{rec},
		Inventory: seedInventory{rec},
		Materials: seedMaterials{rec},
		Catalog:   seedCatalog{rec},
	}
	return &Env{OpenSeeder: func(context.Context) (*Seeder, func(), error) { return seeder, noop, nil }}
}

func TestSeedCommand(t *testing.T) {
	rec := &seedRecorder{}
	out, err := run(t, newSeedEnv(rec), "seed")
	require.NoError(t, err)
	require.Equal(t, 2, rec.customers)
	require.Equal(t, 1, rec.suppliers)
	require.Equal(t, 3, rec.inventory)
	require.Equal(t, 2, rec.materials)
	require.Equal(t, 1, rec.products)
	require.Equal(t, 1, rec.locals)
	require.Contains(t, out, "raw material m N1")
}

func TestSeedSkipsExistingInventory(t *testing.T) {
	rec := &seedRecorder{inventoryConflict: true}
	out, err := run(t, newSeedEnv(rec), "seed")
	require.NoError(t, err)
	require.Equal(t, 0, rec.inventory)
	require.Contains(t, out, "inventory NBR 20x40 exists")
}
