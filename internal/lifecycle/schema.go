package lifecycle

import (
	"fmt"
	"time"

	"tillcore/pkg/domain"
)

// PayoutsReservedKey carries a shift's payout child records inside the flat
// envelope record for the shift. It is never written as a literal field.
const PayoutsReservedKey = "_payouts_subcollection"

// importChunkSize caps parent records per import batch. The importer also
// flushes when total queued writes reach domain.MaxBatchOps, whichever
// comes first.
const importChunkSize = 400

// DefaultSchema is the fixed collection configuration of the point-of-sale
// store. Shifts own a payouts child collection. A reset clears transactional
// history but keeps the operational surface (menu, categories, open tables,
// settings) intact.
func DefaultSchema() domain.Schema {
	return domain.Schema{
		Collections: []string{
			"menu_items",
			"categories",
			"tables",
			"staff",
			"inventory",
			"shifts",
			"receipts",
			"settings",
		},
		Children: map[string]domain.ChildCollection{
			"shifts": {Collection: "payouts", ReservedKey: PayoutsReservedKey},
		},
		Destructible: []string{
			"shifts",
			"receipts",
			"inventory",
			"staff",
		},
		ChunkSize:  importChunkSize,
		FilePrefix: "tillcore",
	}
}

// ExportKey is the archive key for a routine export taken at t.
func ExportKey(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_export_%s.json", prefix, t.UTC().Format("2006-01-02"))
}

// EmergencyBackupKey is the archive key for the backup a reset takes before
// destroying anything. The distinct name keeps it recognizable next to
// routine exports.
func EmergencyBackupKey(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_emergency_backup_%s.json", prefix, t.UTC().Format("2006-01-02"))
}
