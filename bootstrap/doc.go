// Package bootstrap runs a service through its lifecycle: config defaults
// and validation, logger initialization, ordered component start, configure
// callbacks, a startup summary, signal handling and graceful shutdown.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = app.RegisterComponent(models)
//	_ = app.RegisterComponent(server.NewComponent(srv))
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package bootstrap
