package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/omule0/digest/internal/auth"
	"github.com/omule0/digest/internal/chat"
	"github.com/omule0/digest/internal/chunks"
	"github.com/omule0/digest/internal/config"
	"github.com/omule0/digest/internal/db"
	"github.com/omule0/digest/internal/documents"
	"github.com/omule0/digest/internal/handlers"
	"github.com/omule0/digest/internal/ingest"
	"github.com/omule0/digest/internal/llm"
	"github.com/omule0/digest/internal/reports"
	"github.com/omule0/digest/internal/tokens"
	"github.com/omule0/digest/internal/user"
	"github.com/omule0/digest/internal/workspaces"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.DebugLevel)

	logrus.Info("starting server...")

	cfg := config.Load()
	auth.SetSecret(cfg.JWTSecret)

	ctx := context.Background()

	logrus.Debug("initializing database pool")
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer func() {
		logrus.Debug("closing database pool")
		pool.Close()
	}()

	logrus.Debug("initializing model clients")
	chatModel, err := llm.NewOpenAI(cfg.OpenAIKey, cfg.ChatModel)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create chat model client")
	}
	embedder, err := llm.NewOpenAIEmbedder(cfg.OpenAIKey, cfg.EmbeddingModel)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create embedder")
	}

	// setup services
	logrus.Debug("initializing services")
	userService := &user.Service{DB: pool}
	workspaceService := &workspaces.Service{DB: pool}
	chunkStore := &chunks.Store{DB: pool}
	documentService := &documents.Service{DB: pool, Chunks: chunkStore}
	tokenService := &tokens.Service{DB: pool}
	reportStore := &reports.Store{DB: pool}

	ingestService, err := ingest.NewService(workspaceService, chunkStore)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create ingestion service")
	}
	chatService := &chat.Service{
		Chunks:    chunkStore,
		Documents: documentService,
		Ingest:    ingestService,
		Model:     chatModel,
		Embedder:  embedder,
	}
	synthesizer, err := reports.NewSynthesizer(chatModel, tokenService, reportStore)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create report synthesizer")
	}

	authHandler := &handlers.AuthHandler{UserService: userService}
	workspaceHandler := &handlers.WorkspaceHandler{WorkspaceService: workspaceService}
	documentHandler := &handlers.DocumentHandler{DocumentService: documentService}
	chatHandler := &handlers.ChatHandler{ChatService: chatService}
	reportHandler := &handlers.ReportHandler{
		Synthesizer:  synthesizer,
		SchemaStore:  reportStore,
		TokenService: tokenService,
	}
	logrus.Info("services initialized successfully")

	logrus.Debug("setting up HTTP router")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Post("/signup", authHandler.Signup)
	r.Post("/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.Refresh)
	logrus.Info("public routes registered")

	// --- Protected Routes ---
	r.Group(func(protected chi.Router) {
		protected.Use(auth.Middleware(userService))

		protected.Post("/logout", authHandler.Logout)
		protected.Get("/me", authHandler.Me)

		protected.Route("/workspaces", func(r chi.Router) {
			r.Post("/", workspaceHandler.CreateWorkspace)
			r.Get("/", workspaceHandler.ListWorkspaces)

			r.Route("/{workspaceID}", func(r chi.Router) {
				r.Get("/", workspaceHandler.GetWorkspace)
				r.Put("/", workspaceHandler.UpdateWorkspace)
				r.Delete("/", workspaceHandler.DeleteWorkspace)

				r.Route("/documents", func(r chi.Router) {
					r.Post("/", documentHandler.CreateDocument)
					r.Get("/", documentHandler.ListDocuments)

					r.Route("/{documentID}", func(r chi.Router) {
						r.Get("/", documentHandler.GetDocument)
						r.Put("/", documentHandler.UpdateDocument)
						r.Delete("/", documentHandler.DeleteDocument)
					})
				})
			})
		})

		protected.Post("/pdf-chat", chatHandler.Chat)
		protected.Post("/generate-document", reportHandler.Generate)
		protected.Get("/usage", reportHandler.Usage)

		protected.Route("/schemas", func(r chi.Router) {
			r.Post("/", reportHandler.CreateSchema)
			r.Get("/", reportHandler.ListSchemas)

			r.Route("/{schemaID}", func(r chi.Router) {
				r.Get("/", reportHandler.GetSchema)
				r.Delete("/", reportHandler.DeleteSchema)
			})
		})
	})
	logrus.Info("protected routes registered")

	logrus.WithField("address", cfg.Addr).Info("server starting")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logrus.WithError(err).Fatal("server failed to start")
	}
}
