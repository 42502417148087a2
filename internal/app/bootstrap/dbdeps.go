// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/festivo/internal/app/system/metrics"
	"github.com/dalemusser/festivo/internal/app/system/ratelimit"
	"github.com/dalemusser/festivo/internal/app/system/tasks"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app. The pointer
// fields are shared by every hook that receives a copy.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Metrics      *metrics.Metrics
	LoginLimiter *ratelimit.LoginLimiter
	Tasks        *tasks.Scheduler
}
