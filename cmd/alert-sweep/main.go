// alert-sweep re-derives every active provider's alert set. Meant to run
// daily from cron; providers are independent, so partial failures only skip
// the affected provider.
package main

import (
	"flag"
	"fmt"
	"log"

	"credentialing-api/config"
	"credentialing-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.ReloadMailerConfig()
	config.InitDB()

	var providerID int
	flag.IntVar(&providerID, "provider-id", 0, "evaluate a single provider instead of all active ones")
	flag.Parse()

	phases := services.NewPhaseService(config.DB)
	alerts := services.NewAlertService(config.DB)

	var providerIDs []int
	if providerID > 0 {
		providerIDs = []int{providerID}
	} else {
		ids, err := phases.ActiveProviderIDs()
		if err != nil {
			log.Fatalf("failed to list active providers: %v", err)
		}
		providerIDs = ids
	}

	var created, escalated, failed int
	for _, id := range providerIDs {
		c, e, err := alerts.EvaluateProvider(id)
		if err != nil {
			failed++
			log.Printf("provider %d: evaluation failed: %v", id, err)
			continue
		}
		created += c
		escalated += e
	}

	fmt.Printf("Providers evaluated: %d (errors: %d)\n", len(providerIDs)-failed, failed)
	fmt.Printf("Alerts created: %d, escalated: %d\n", created, escalated)

	if failed > 0 && failed == len(providerIDs) {
		log.Fatal("alert sweep failed for every provider")
	}
}
