package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, s := range []string{"converted", "cached", "noop", "error"} {
		ImageConversionsTotal.WithLabelValues(s)
	}

	for _, f := range []string{"jpeg", "png", "gif", "webp"} {
		for _, s := range []string{"generated", "cached", "error"} {
			ImageVariantsTotal.WithLabelValues(f, s)
		}
		ImageVariantDuration.WithLabelValues(f)
	}

	ImageCacheTotal.WithLabelValues("hit")
	ImageCacheTotal.WithLabelValues("miss")

	ImageBatchFiles.WithLabelValues("succeeded")
	ImageBatchFiles.WithLabelValues("failed")

	for _, c := range []string{"webp", "variant", "literal", "case_insensitive", "not_found"} {
		ImageServedTotal.WithLabelValues(c)
	}

	for _, s := range []string{"success", "error"} {
		ImagePublishTotal.WithLabelValues(s)
		AuthAttemptsTotal.WithLabelValues(s)
	}

	for _, s := range []string{"accepted", "rejected", "failed"} {
		UploadsTotal.WithLabelValues(s)
	}

	for _, s := range []string{"accepted", "invalid", "error"} {
		ContactSubmissionsTotal.WithLabelValues(s)
	}

	for _, op := range []string{"initialize_schema", "get_portfolio", "save_contact_message",
		"list_contact_messages", "mark_message_read", "seed", "ensure_stats", "collect_stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	volumes := []string{"images", "uploads", "site", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "open", "readdir", "rename"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
