package controllers

import (
	"credentialing-api/config"
	"credentialing-api/services"
)

// Service constructors are cheap; handlers build them per request against the
// shared config.DB handle.

func phaseService() *services.PhaseService {
	return services.NewPhaseService(config.DB)
}

func alertService() *services.AlertService {
	return services.NewAlertService(config.DB)
}

func documentService() *services.DocumentService {
	return services.NewDocumentService(config.DB, services.NewLocalDocumentStorage(""), alertService())
}

func verificationService() *services.VerificationService {
	registry := services.NewRegistryClient(nil)
	return services.NewVerificationService(config.DB, registry.Lookup, alertService())
}
