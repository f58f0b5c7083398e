// Package main: WebSocket Hub callback wire-up.
//
// Hub ws paketinde yaşar ama poll doğrulaması repository katmanında.
// Hub'ın repository'lere bağımlı olmaması için bağlantı burada kurulur.
package main

import (
	"context"
	"log"
	"time"

	"github.com/akinalp/votespace/repository"
	"github.com/akinalp/votespace/ws"
)

// subscribeLookupTimeout, subscribe sırasında poll lookup'ı için üst sınır.
const subscribeLookupTimeout = 5 * time.Second

// registerHubCallbacks, Hub callback'lerini register eder.
func registerHubCallbacks(hub *ws.Hub, pollRepo repository.PollRepository) {
	// Olmayan poll'a abonelik açılmaz; client "error" event'i alır.
	hub.OnPollSubscribe(func(pollID string) error {
		ctx, cancel := context.WithTimeout(context.Background(), subscribeLookupTimeout)
		defer cancel()

		if _, err := pollRepo.GetByID(ctx, pollID); err != nil {
			log.Printf("[ws] subscribe rejected for poll %s: %v", pollID, err)
			return err
		}
		return nil
	})
}
