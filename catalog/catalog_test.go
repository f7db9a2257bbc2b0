package catalog_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/wkalt/distplan/catalog"
	"github.com/wkalt/distplan/distplan"
)

func TestCatalogs(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		assertion string
		f         func(*testing.T) catalog.Catalog
	}{
		{
			"mem",
			func(t *testing.T) catalog.Catalog {
				t.Helper()
				return catalog.NewMemCatalog()
			},
		},
		{
			"sql",
			func(t *testing.T) catalog.Catalog {
				t.Helper()
				db, err := sql.Open("sqlite3", ":memory:")
				require.NoError(t, err)
				db.SetMaxOpenConns(1)
				t.Cleanup(func() { db.Close() })
				c, err := catalog.NewSQLCatalog(db)
				require.NoError(t, err)
				return c
			},
		},
	}
	pem := distplan.Descriptor{
		Name:               "pem-1",
		QueryBrokerAddress: "qb:50300",
		AgentID:            uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479"),
		HasDataStore:       true,
		ProcessesData:      true,
		ASID:               12,
	}
	kelvin := distplan.Descriptor{
		Name:                 "kelvin",
		QueryBrokerAddress:   "qb:50300",
		GRPCAddress:          "kelvin:59300",
		HasGRPCServer:        true,
		ProcessesData:        true,
		AcceptsRemoteSources: true,
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			store := c.f(t)
			t.Run("put and get", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, pem))
				d, err := store.Get(ctx, "pem-1")
				require.NoError(t, err)
				require.Equal(t, pem, d)
			})
			t.Run("put replaces", func(t *testing.T) {
				updated := pem
				updated.ASID = 13
				require.NoError(t, store.Put(ctx, updated))
				d, err := store.Get(ctx, "pem-1")
				require.NoError(t, err)
				require.Equal(t, uint32(13), d.ASID)
				require.NoError(t, store.Put(ctx, pem))
			})
			t.Run("list is sorted by name", func(t *testing.T) {
				require.NoError(t, store.Put(ctx, kelvin))
				descriptors, err := store.List(ctx)
				require.NoError(t, err)
				require.Equal(t, []distplan.Descriptor{kelvin, pem}, descriptors)
			})
			t.Run("get missing", func(t *testing.T) {
				_, err := store.Get(ctx, "nope")
				require.ErrorIs(t, err, catalog.NodeNotFoundError{})
			})
			t.Run("empty name", func(t *testing.T) {
				require.ErrorIs(t, store.Put(ctx, distplan.Descriptor{}), catalog.ErrEmptyName)
			})
			t.Run("delete", func(t *testing.T) {
				require.NoError(t, store.Delete(ctx, "kelvin"))
				require.NoError(t, store.Delete(ctx, "kelvin"))
				_, err := store.Get(ctx, "kelvin")
				require.ErrorIs(t, err, catalog.NodeNotFoundError{})
			})
		})
	}
}

func TestSQLCatalogReopen(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	first, err := catalog.NewSQLCatalog(db)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, distplan.Descriptor{Name: "a"}))

	second, err := catalog.NewSQLCatalog(db)
	require.NoError(t, err)
	d, err := second.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "a", d.Name)
}
