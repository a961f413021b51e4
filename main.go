package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"lit-review/config"
	"lit-review/models"
	"lit-review/providers/ollama"
	"lit-review/services"
	"lit-review/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	decisionsCounter   prometheus.Counter
	suggestionsCounter prometheus.Counter
)

func init() {
	decisionsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screening_decisions_total",
			Help: "Total number of screening decisions recorded.",
		},
	)
	suggestionsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "llm_suggestions_requested_total",
			Help: "Total number of LLM suggestions requested.",
		},
	)
	prometheus.MustRegister(decisionsCounter, suggestionsCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := services.OpenDatabase(cfg.DBPath)
	if err != nil {
		logging.Fatal("Failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	logging.Info("Database opened.", zap.String("path", cfg.DBPath))

	logging.Info("Running database auto-migration...")
	if err := services.AutoMigrate(db); err != nil {
		logging.Fatal("Auto-migration failed", zap.Error(err))
	}
	services.SeedDefaults(db, logging)

	// Assistant options: environment defaults overlaid with the settings table.
	opts, err := services.LoadLLMOptions(db, cfg)
	if err != nil {
		logging.Fatal("Failed to load LLM options", zap.Error(err))
	}

	screening := services.NewScreeningService(db, logging)
	prompts := services.NewPromptService(db)
	chatClient := ollama.NewClient(opts.Host, opts.Timeout, logging)
	assistant := services.NewAssistantService(db, chatClient, opts, logging)
	dispatcher := services.NewSuggestionDispatcher(screening, assistant, logging)
	importer := services.NewImportService(db, logging)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	setupSearchRoutes(router, db, screening, importer, logging)
	setupDocumentRoutes(router, screening, logging)
	setupPassReviewRoutes(router, screening, assistant, dispatcher, logging)
	setupVocabularyRoutes(router, screening, logging)
	setupPromptRoutes(router, prompts, logging)
	setupSettingsRoutes(router, db, cfg, logging)
	setupLLMRoutes(router, assistant, logging)

	// Scheduled database backups when object storage is configured.
	if cfg.BackupEnabled() && cfg.BackupCronSchedule != "" {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		backups := storage.NewBackups(s3Client, cfg, logging)

		cronScheduler := cron.New()
		cronScheduler.AddFunc(cfg.BackupCronSchedule, func() {
			logging.Info("Running scheduled backup...")
			key, err := backups.Push(context.Background(), cfg.DBPath)
			if err != nil {
				logging.Error("Scheduled backup failed", zap.Error(err))
			} else {
				logging.Info("Scheduled backup completed", zap.String("key", key))
			}
		})
		cronScheduler.Start()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupSearchRoutes(router *gin.Engine, db *gorm.DB, screening *services.ScreeningService, importer *services.ImportService, log *zap.Logger) {
	rg := router.Group("/searches")

	rg.GET("/", func(c *gin.Context) {
		var searches []models.Search
		if err := db.Order("id").Find(&searches).Error; err != nil {
			log.Error("Database query for searches failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, searches)
	})

	// POST - Import a directory of .bib files as a new search
	rg.POST("/import", func(c *gin.Context) {
		var req struct {
			Source  string `json:"source" binding:"required"`
			Details string `json:"details"`
			Dir     string `json:"dir" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: source and dir are required"})
			return
		}

		existing, err := importer.FindSearchBySource(req.Source)
		if err != nil {
			log.Error("Search lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("search %q already exists", req.Source)})
			return
		}

		search, err := importer.CreateSearch(req.Source, req.Details)
		if err != nil {
			log.Error("Failed to create search", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create search"})
			return
		}

		stats, err := importer.ImportDirectory(req.Dir, search.ID)
		if err != nil {
			log.Error("Import failed", zap.Uint("search_id", search.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stats": stats})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"search": search, "stats": stats})
	})

	rg.GET("/:id/progress", func(c *gin.Context) {
		searchID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		progress, err := screening.Progress(searchID)
		if err != nil {
			log.Error("Progress query failed", zap.Uint("search_id", searchID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, progress)
	})

	// GET - Progress as CSV, one row per pass
	rg.GET("/:id/progress.csv", func(c *gin.Context) {
		searchID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		progress, err := screening.Progress(searchID)
		if err != nil {
			log.Error("Progress query failed", zap.Uint("search_id", searchID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=progress_search_%d.csv", searchID))
		w := csv.NewWriter(c.Writer)
		w.Write([]string{"pass", "eligible", "human_reviewed", "llm_reviewed", "included", "excluded", "uncertain"})
		w.Write([]string{"1",
			strconv.FormatInt(progress.Total, 10),
			strconv.FormatInt(progress.Pass1.HumanReviewed, 10),
			strconv.FormatInt(progress.Pass1.LLMReviewed, 10),
			strconv.FormatInt(progress.Pass1.Included, 10),
			strconv.FormatInt(progress.Pass1.Excluded, 10),
			strconv.FormatInt(progress.Pass1.Uncertain, 10),
		})
		w.Write([]string{"2",
			strconv.FormatInt(progress.Pass2.Eligible, 10),
			strconv.FormatInt(progress.Pass2.HumanReviewed, 10),
			strconv.FormatInt(progress.Pass2.LLMReviewed, 10),
			strconv.FormatInt(progress.Pass2.Included, 10),
			strconv.FormatInt(progress.Pass2.Excluded, 10),
			strconv.FormatInt(progress.Pass2.Uncertain, 10),
		})
		w.Flush()
	})

	rg.GET("/:id/documents", func(c *gin.Context) {
		searchID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		passNumber := 1
		if raw := c.Query("pass"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || (n != 1 && n != 2) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "pass must be 1 or 2"})
				return
			}
			passNumber = n
		}

		docs, err := screening.EligibleForPass(searchID, passNumber)
		if err != nil {
			log.Error("Eligibility query failed", zap.Uint("search_id", searchID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, docs)
	})
}

func setupDocumentRoutes(router *gin.Engine, screening *services.ScreeningService, log *zap.Logger) {
	rg := router.Group("/documents")

	rg.GET("/:id", func(c *gin.Context) {
		documentID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		detail, err := screening.GetDocument(documentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Error("Document query failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, detail)
	})

	rg.GET("/:id/effective-review", func(c *gin.Context) {
		documentID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		effective, err := screening.GetEffectiveReview(documentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Error("Effective review query failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, effective)
	})

	rg.GET("/:id/review", func(c *gin.Context) {
		documentID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		review, err := screening.GetReview(documentID)
		if err != nil {
			log.Error("Review query failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if review == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
			return
		}
		c.JSON(http.StatusOK, review)
	})

	rg.PUT("/:id/review", func(c *gin.Context) {
		documentID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			Included       *bool    `json:"included"`
			Notes          string   `json:"notes"`
			Domain         *string  `json:"domain"`
			Reference      *bool    `json:"reference"`
			ExclusionCodes []string `json:"exclusion_codes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		review, err := screening.SaveReview(documentID, req.Included, req.Notes, req.Domain, req.Reference, req.ExclusionCodes)
		if err != nil {
			log.Error("Review save failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		decisionsCounter.Inc()
		c.JSON(http.StatusOK, review)
	})

	rg.GET("/:id/tags", func(c *gin.Context) {
		documentID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		tags, err := screening.DocumentTags(documentID)
		if err != nil {
			log.Error("Tag query failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tags": tags})
	})

	rg.PUT("/:id/tags", func(c *gin.Context) {
		documentID, ok := parseUintParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			Tags []string `json:"tags"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		tags, err := screening.SetDocumentTags(documentID, req.Tags)
		if err != nil {
			log.Error("Tag update failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tags": tags})
	})
}

func setupPassReviewRoutes(router *gin.Engine, screening *services.ScreeningService, assistant *services.AssistantService, dispatcher *services.SuggestionDispatcher, log *zap.Logger) {
	rg := router.Group("/documents/:id/pass/:pass")

	params := func(c *gin.Context) (uint, int, bool) {
		documentID, ok := parseUintParam(c, "id")
		if !ok {
			return 0, 0, false
		}
		passNumber, err := strconv.Atoi(c.Param("pass"))
		if err != nil || (passNumber != 1 && passNumber != 2) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pass must be 1 or 2"})
			return 0, 0, false
		}
		return documentID, passNumber, true
	}

	rg.GET("/review", func(c *gin.Context) {
		documentID, passNumber, ok := params(c)
		if !ok {
			return
		}
		// With auto-suggest on, navigating to an unsuggested document kicks
		// off a background fetch.
		dispatcher.RequestIfUnsuggested(documentID, passNumber)
		review, err := screening.GetPassReview(documentID, passNumber)
		if err != nil {
			log.Error("Pass review query failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if review == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no review recorded"})
			return
		}
		c.JSON(http.StatusOK, review)
	})

	rg.GET("/effective-review", func(c *gin.Context) {
		documentID, passNumber, ok := params(c)
		if !ok {
			return
		}
		effective, err := screening.GetEffectivePassReview(documentID, passNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Error("Effective pass review query failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, effective)
	})

	rg.PUT("/review", func(c *gin.Context) {
		documentID, passNumber, ok := params(c)
		if !ok {
			return
		}
		var req struct {
			Decision       *string  `json:"decision"`
			Notes          string   `json:"notes"`
			ExclusionCodes []string `json:"exclusion_codes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		review, err := screening.SavePassReview(documentID, passNumber, req.Decision, req.Notes, req.ExclusionCodes)
		if err != nil {
			log.Error("Pass review save failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		decisionsCounter.Inc()
		c.JSON(http.StatusOK, review)
	})

	rg.POST("/suggest", func(c *gin.Context) {
		documentID, passNumber, ok := params(c)
		if !ok {
			return
		}
		suggestionsCounter.Inc()

		// async=true hands the fetch to the background dispatcher, last
		// request wins.
		if c.Query("async") == "true" {
			dispatcher.Request(documentID, passNumber)
			c.JSON(http.StatusAccepted, gin.H{"message": "suggestion requested"})
			return
		}

		detail, err := screening.GetDocument(documentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
				return
			}
			log.Error("Document query failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		sug, err := assistant.Suggest(c.Request.Context(), &detail.DocumentWithMeta, passNumber)
		if err != nil {
			log.Error("Suggestion failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "suggestion failed"})
			return
		}
		if err := screening.StoreSuggestion(documentID, passNumber, sug); err != nil {
			log.Error("Failed to cache suggestion", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, sug)
	})

	rg.POST("/accept-suggestion", func(c *gin.Context) {
		documentID, passNumber, ok := params(c)
		if !ok {
			return
		}
		review, err := screening.AcceptSuggestion(documentID, passNumber)
		if err != nil {
			log.Error("Accept suggestion failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		decisionsCounter.Inc()
		c.JSON(http.StatusOK, review)
	})

	rg.POST("/reject-suggestion", func(c *gin.Context) {
		documentID, passNumber, ok := params(c)
		if !ok {
			return
		}
		if err := screening.RejectSuggestion(documentID, passNumber); err != nil {
			log.Error("Reject suggestion failed", zap.Uint("document_id", documentID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "suggestion rejected"})
	})
}

func setupVocabularyRoutes(router *gin.Engine, screening *services.ScreeningService, log *zap.Logger) {
	codes := router.Group("/exclusion-codes")
	codes.GET("/", func(c *gin.Context) {
		list, err := screening.ListExclusionCodes()
		if err != nil {
			log.Error("Exclusion code query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, list)
	})
	codes.POST("/", func(c *gin.Context) {
		var req struct {
			Code        string `json:"code" binding:"required"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: code is required"})
			return
		}
		code, err := screening.EnsureExclusionCode(req.Code, req.Description)
		if err != nil {
			log.Error("Exclusion code create failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, code)
	})

	tags := router.Group("/tags")
	tags.GET("/", func(c *gin.Context) {
		list, err := screening.ListTags()
		if err != nil {
			log.Error("Tag query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, list)
	})
}

func setupPromptRoutes(router *gin.Engine, prompts *services.PromptService, log *zap.Logger) {
	rg := router.Group("/prompts")

	rg.GET("/active", func(c *gin.Context) {
		active, err := prompts.Active()
		if err != nil {
			log.Error("Prompt query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, active)
	})

	rg.GET("/:name/history", func(c *gin.Context) {
		name := c.Param("name")
		if !services.ValidPromptName(name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown prompt name"})
			return
		}
		versions, err := prompts.History(name)
		if err != nil {
			log.Error("Prompt history query failed", zap.String("name", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, versions)
	})

	rg.POST("/sync", func(c *gin.Context) {
		var req struct {
			Name    string `json:"name" binding:"required"`
			Content string `json:"content" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: name and content are required"})
			return
		}
		version, created, err := prompts.Sync(req.Name, req.Content)
		if err != nil {
			log.Error("Prompt sync failed", zap.String("name", req.Name), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{"version": version, "created": created})
	})
}

func setupSettingsRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/settings")

	rg.GET("/llm", func(c *gin.Context) {
		opts, err := services.LoadLLMOptions(db, cfg)
		if err != nil {
			log.Error("Settings query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"host":          opts.Host,
			"model":         opts.Model,
			"thinking_mode": opts.ThinkingMode,
			"auto_suggest":  opts.AutoSuggest,
		})
	})

	// Changed options take effect on the next server start; the running
	// assistant keeps the options it was built with.
	rg.PUT("/llm", func(c *gin.Context) {
		var req struct {
			Host         *string `json:"host"`
			Model        *string `json:"model"`
			ThinkingMode *bool   `json:"thinking_mode"`
			AutoSuggest  *bool   `json:"auto_suggest"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		opts, err := services.LoadLLMOptions(db, cfg)
		if err != nil {
			log.Error("Settings query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if req.Host != nil {
			opts.Host = *req.Host
		}
		if req.Model != nil {
			opts.Model = *req.Model
		}
		if req.ThinkingMode != nil {
			opts.ThinkingMode = *req.ThinkingMode
		}
		if req.AutoSuggest != nil {
			opts.AutoSuggest = *req.AutoSuggest
		}

		if err := services.SaveLLMOptions(db, opts); err != nil {
			log.Error("Settings save failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"host":          opts.Host,
			"model":         opts.Model,
			"thinking_mode": opts.ThinkingMode,
			"auto_suggest":  opts.AutoSuggest,
		})
	})
}

func setupLLMRoutes(router *gin.Engine, assistant *services.AssistantService, log *zap.Logger) {
	rg := router.Group("/llm")

	rg.POST("/test", func(c *gin.Context) {
		ok, message := assistant.TestConnection(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"ok": ok, "message": message})
	})
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
		return 0, false
	}
	return uint(value), true
}
