package cmd

import (
	"github.com/driftkit/drift/pkg/config"
	"github.com/driftkit/drift/pkg/dirty"
	"github.com/driftkit/drift/pkg/driftd"
	"github.com/driftkit/drift/pkg/driftd/webapi"
	"github.com/driftkit/drift/pkg/graphdb/stor"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type RouteDependencies struct {
	e         *echo.Echo
	config    config.Configer
	schema    *dirty.Schema
	stors     *stor.Stors
	graph     *stor.TrackedGraph
	tracker   *dirty.Tracker
	committer *driftd.Committer
	hub       *webapi.TransitionHub
}

func setupRoutes(deps RouteDependencies) {
	deps.e.Use(middleware.Recover())
	g := deps.e.Group("/api")

	logController := webapi.NewLogController()
	g.POST("/set-logging-level", logController.SetLogLevel)
	g.POST("/set-logging-output", logController.SetLogOutput)
	g.POST("/set-logging", logController.SetLogging)
	g.GET("/show-logging", logController.ShowCurrentLogging)

	entitiesController := webapi.NewEntitiesController(deps.schema, deps.stors, deps.graph, deps.tracker)
	g.POST("/entities", entitiesController.CreateEntity)
	g.GET("/entities", entitiesController.IndexEntities)
	g.GET("/entities/:uuid", entitiesController.GetEntity)
	g.GET("/entities/:uuid/status", entitiesController.GetEntity)
	g.DELETE("/entities/:uuid", entitiesController.MarkEntityDeleted)
	g.PUT("/entities/:uuid/attributes", entitiesController.SetAttribute)
	g.PUT("/entities/:uuid/relationships/:name", entitiesController.SetRelationship)
	g.POST("/entities/:uuid/relationships/:name/members", entitiesController.AddRelationshipMember)
	g.DELETE("/entities/:uuid/relationships/:name/members", entitiesController.RemoveRelationshipMember)
	g.GET("/entities/:uuid/snapshots", entitiesController.GetSnapshots)

	commitsController := webapi.NewCommitsController(deps.committer, deps.tracker)
	g.POST("/entities/:uuid/load", commitsController.LoadEntity)
	g.POST("/entities/:uuid/commit", commitsController.CommitEntity)
	g.POST("/entities/:uuid/rollback", commitsController.RollbackEntity)

	deps.e.GET("/ws/transitions", deps.hub.ServeWS)
}
