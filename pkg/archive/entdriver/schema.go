package entdriver

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	Table = "sessions"

	ColumnID         = "id"
	ColumnURL        = "url"
	ColumnMethod     = "method"
	ColumnStatus     = "status"
	ColumnError      = "error"
	ColumnResult     = "result"
	ColumnRecords    = "records"
	ColumnDropped    = "dropped"
	ColumnStartedAt  = "started_at"
	ColumnFinishedAt = "finished_at"
)

// Columns lists the session columns in scan order.
var Columns = []string{
	ColumnID,
	ColumnURL,
	ColumnMethod,
	ColumnStatus,
	ColumnError,
	ColumnResult,
	ColumnRecords,
	ColumnDropped,
	ColumnStartedAt,
	ColumnFinishedAt,
}

var (
	sessionsColumns = []*schema.Column{
		{Name: ColumnID, Type: field.TypeString},
		{Name: ColumnURL, Type: field.TypeString},
		{Name: ColumnMethod, Type: field.TypeString},
		{Name: ColumnStatus, Type: field.TypeString},
		{Name: ColumnError, Type: field.TypeString, Default: ""},
		{Name: ColumnResult, Type: field.TypeJSON},
		{Name: ColumnRecords, Type: field.TypeInt, Default: 0},
		{Name: ColumnDropped, Type: field.TypeInt, Default: 0},
		{Name: ColumnStartedAt, Type: field.TypeTime},
		{Name: ColumnFinishedAt, Type: field.TypeTime},
	}

	// SessionsTable is the archive schema applied by Migrate.
	SessionsTable = &schema.Table{
		Name:       Table,
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "session_started_at",
				Unique:  false,
				Columns: []*schema.Column{sessionsColumns[8]},
			},
		},
	}
)
