package main

import (
	"club-scheduler/core/logger"
	"club-scheduler/core/server"
)

// @title Club Scheduler API
// @version 1.0
// @description Recurring club activity sessions: series, generated events, timeslot signups.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
