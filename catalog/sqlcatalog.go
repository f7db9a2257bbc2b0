package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wkalt/distplan/distplan"
)

type sqlCatalog struct {
	db *sql.DB
}

// NewSQLCatalog returns a catalog stored in db, creating its table if
// needed. The queries are written for sqlite.
func NewSQLCatalog(db *sql.DB) (Catalog, error) {
	c := &sqlCatalog{
		db: db,
	}
	if err := c.initialize(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *sqlCatalog) initialize() error {
	var maxApplied int64
	err := c.db.QueryRow("select max(version) from schema_migrations").Scan(&maxApplied)
	if err == nil && maxApplied == 1 {
		return nil
	}
	if _, err := c.db.Exec(`
	create table if not exists nodes (
		name text primary key,
		query_broker_address text not null,
		agent_id text not null,
		grpc_address text not null,
		has_grpc_server boolean not null,
		has_data_store boolean not null,
		processes_data boolean not null,
		accepts_remote_sources boolean not null,
		asid bigint not null,
		timestamp text not null default current_timestamp
	);

	create table if not exists schema_migrations(
		version bigint not null,
		timestamp text not null default current_timestamp
	);

	insert into schema_migrations(version) values (1);
	`); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (c *sqlCatalog) Put(ctx context.Context, d distplan.Descriptor) error {
	if d.Name == "" {
		return ErrEmptyName
	}
	_, err := c.db.ExecContext(ctx, `
	insert or replace into nodes (
		name, query_broker_address, agent_id, grpc_address, has_grpc_server,
		has_data_store, processes_data, accepts_remote_sources, asid
	) values ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.Name, d.QueryBrokerAddress, d.AgentID.String(), d.GRPCAddress, d.HasGRPCServer,
		d.HasDataStore, d.ProcessesData, d.AcceptsRemoteSources, d.ASID,
	)
	if err != nil {
		return fmt.Errorf("failed to store node: %w", err)
	}
	return nil
}

const selectNodes = `
	select name, query_broker_address, agent_id, grpc_address, has_grpc_server,
	has_data_store, processes_data, accepts_remote_sources, asid from nodes`

type scanner interface {
	Scan(dest ...any) error
}

func scanDescriptor(row scanner) (distplan.Descriptor, error) {
	var d distplan.Descriptor
	var agentID string
	if err := row.Scan(
		&d.Name, &d.QueryBrokerAddress, &agentID, &d.GRPCAddress, &d.HasGRPCServer,
		&d.HasDataStore, &d.ProcessesData, &d.AcceptsRemoteSources, &d.ASID,
	); err != nil {
		return d, err
	}
	id, err := uuid.Parse(agentID)
	if err != nil {
		return d, fmt.Errorf("failed to parse agent id: %w", err)
	}
	d.AgentID = id
	return d, nil
}

func (c *sqlCatalog) Get(ctx context.Context, name string) (distplan.Descriptor, error) {
	d, err := scanDescriptor(c.db.QueryRowContext(ctx, selectNodes+` where name = $1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return distplan.Descriptor{}, NewNodeNotFoundError(name)
		}
		return distplan.Descriptor{}, fmt.Errorf("failed to read node: %w", err)
	}
	return d, nil
}

func (c *sqlCatalog) List(ctx context.Context) ([]distplan.Descriptor, error) {
	rows, err := c.db.QueryContext(ctx, selectNodes+` order by name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()
	descriptors := []distplan.Descriptor{}
	for rows.Next() {
		d, err := scanDescriptor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read node: %w", err)
		}
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	return descriptors, nil
}

func (c *sqlCatalog) Delete(ctx context.Context, name string) error {
	if _, err := c.db.ExecContext(ctx, `delete from nodes where name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	return nil
}
