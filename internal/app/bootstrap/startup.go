// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	userstore "github.com/dalemusser/stratacloud/internal/app/store/users"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting. The context will be cancelled if the process is asked to shut
// down while Startup is running; honor it in any long-running work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.SeedAdminName != "" {
		if err := ensureAdminOwner(ctx, deps, appCfg.SeedAdminName, appCfg.DefaultQuota, logger); err != nil {
			logger.Error("failed to seed admin owner", zap.Error(err))
			return err
		}
	}

	return nil
}

// ensureAdminOwner ensures an admin owner with the given name exists.
// An existing owner of that name is promoted; otherwise a new one is created
// with the default quota.
func ensureAdminOwner(ctx context.Context, deps DBDeps, name string, quota int64, logger *zap.Logger) error {
	db := deps.MongoDatabase
	coll := db.Collection("users")

	var existing struct {
		ID    interface{} `bson:"_id"`
		Admin bool        `bson:"admin"`
	}
	err := coll.FindOne(ctx, bson.M{"full_name_ci": text.Fold(name)}).Decode(&existing)

	if err == nil {
		if existing.Admin {
			logger.Debug("admin owner already configured", zap.String("name", name))
			return nil
		}
		if _, err := coll.UpdateOne(ctx, bson.M{"full_name_ci": text.Fold(name)},
			bson.M{"$set": bson.M{"admin": true}}); err != nil {
			return err
		}
		logger.Info("promoted existing owner to admin", zap.String("name", name))
		return nil
	}

	if err != mongo.ErrNoDocuments {
		return err
	}

	u, err := userstore.New(db).Create(ctx, userstore.CreateInput{
		FullName: name,
		Quota:    quota,
		Admin:    true,
	})
	if err != nil {
		return err
	}

	logger.Info("created admin owner",
		zap.String("name", name),
		zap.String("owner_id", u.ID.Hex()))
	return nil
}
