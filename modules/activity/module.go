package activity

import (
	"club-scheduler/core/database"
	"club-scheduler/modules/activity/repository"
	"club-scheduler/modules/activity/service"
)

// Init wires the activity log service. The module has no HTTP surface of
// its own; other modules record entries through the returned service.
func Init(db database.IDatabase) service.ActivityServiceInterface {
	repo := repository.NewActivityRepository(db)
	return service.NewActivityService(repo)
}
