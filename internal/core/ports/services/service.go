package services

// ServiceContainer holds instances of all the application services. This is
// the main entry point for accessing service functionality and is what the
// handlers receive.
type ServiceContainer struct {
	Rates     RateQuerySvcFacade
	Sync      SyncSvcFacade
	Scheduler SchedulerSvcFacade
	Rules     RuleSvcFacade
	Cities    CitySvcFacade
}
