package ops

import (
	"context"

	"github.com/dalemusser/festivo/internal/app/membership"
	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ReconcileResult lists what Reconcile found and, with fix, what it repaired.
type ReconcileResult struct {
	Violations []membership.Violation
	Repaired   int
	Failed     int
}

// Reconcile scans every user and committee (inactive committees included)
// for role/roster disagreements. With fix it repairs the fixable ones one
// unit at a time; a failed repair is logged and counted.
func Reconcile(ctx context.Context, db *mongo.Database, engine *membership.Engine, fix bool, log *zap.Logger) (ReconcileResult, error) {
	var res ReconcileResult

	users, err := userstore.New(db).ListAll(ctx)
	if err != nil {
		return res, err
	}
	committees, err := committeestore.New(db).ListAll(ctx)
	if err != nil {
		return res, err
	}

	res.Violations = membership.Scan(users, committees)
	if !fix {
		return res, nil
	}
	for _, v := range res.Violations {
		if !v.Fixable {
			continue
		}
		if err := engine.Repair(ctx, v); err != nil {
			log.Warn("repair failed", zap.String("user", v.Email), zap.String("rule", v.Rule), zap.Error(err))
			res.Failed++
			continue
		}
		res.Repaired++
	}
	return res, nil
}
