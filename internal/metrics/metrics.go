// Package metrics holds the prometheus collectors of the portal.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// Collection label values.
const (
	CollectionMessages  = "messages"
	CollectionResources = "resources"
	CollectionInfos     = "infos"
)

// Import result label values.
const (
	ImportOK      = "ok"
	ImportInvalid = "invalid"
	ImportFailed  = "failed"
)

//nolint:gochecknoglobals
var (
	MessagesSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_submitted_total",
		Help:      "Contact form messages accepted.",
	})

	ResourcesUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resources_uploaded_total",
		Help:      "Files published by the admin.",
	})

	InfosPosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "announcements_posted_total",
		Help:      "Announcements posted by the admin.",
	})

	RecordsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_deleted_total",
		Help:      "Records removed, per collection.",
	}, []string{"collection"})

	PersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persist_failures_total",
		Help:      "Failed writes of a collection to the state storage.",
	}, []string{"collection"})

	Imports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_total",
		Help:      "Import attempts, per result.",
	}, []string{"result"})

	BlobBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_bytes_written_total",
		Help:      "Bytes of file content handed to the blob store.",
	})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Admin login attempts, per result.",
	}, []string{"result"})
)
