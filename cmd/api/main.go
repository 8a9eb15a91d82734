package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/config"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/logging"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/media"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/repository/minio"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/repository/ports"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/repository/postgres"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/service"
	httpapi "github.com/njprem/CodeCamp_LMS_BackEnd/internal/transport/http"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/transport/mail"
	"github.com/njprem/CodeCamp_LMS_BackEnd/internal/util"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	logCloser := logging.Setup("codecamp-lms-api", cfg.LogstashTCPAddr)
	defer logCloser.Close()

	host, _ := os.Hostname()
	reporter := logging.NewErrorReporter(cfg.RollbarToken, cfg.Env, cfg.CodeVersion, host)
	defer reporter.Close()

	db, err := postgres.New(cfg.DatabaseURL)
	errAndDie(err)
	defer db.Close()

	if cfg.MigrateOnStart {
		errAndDie(postgres.Migrate(context.Background(), db, false))
	}

	studentRepo := postgres.NewStudentRepo(db)
	instructorRepo := postgres.NewInstructorRepo(db)
	denylistRepo := postgres.NewTokenDenylistRepo(db)
	classRepo := postgres.NewClassRepo(db)
	assignmentRepo := postgres.NewAssignmentRepo(db)
	submissionRepo := postgres.NewSubmissionRepo(db)
	rosterRepo := postgres.NewRosterImportRepo(db)

	var storage ports.ObjectStorage
	if cfg.StorageEnabled() {
		client, err := minio.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		errAndDie(err)
		store := minio.NewStorage(client, cfg.MinIOPublicURL)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		for _, bucket := range []string{cfg.MinIOBucketSubmissions, cfg.MinIOBucketImports} {
			if err := store.EnsureBucket(ctx, bucket); err != nil {
				log.Printf("storage: ensure bucket %s: %v", bucket, err)
			}
		}
		cancel()
		storage = store
	} else {
		log.Printf("storage: MinIO not configured, file uploads are disabled")
	}

	sender, err := mail.NewSender(mail.Config{
		Provider:       cfg.MailProvider,
		AppName:        cfg.MailFromName,
		From:           cfg.MailFrom,
		FromName:       cfg.MailFromName,
		SMTPHost:       cfg.SMTPHost,
		SMTPPort:       cfg.SMTPPort,
		SMTPUsername:   cfg.SMTPUsername,
		SMTPPassword:   cfg.SMTPPassword,
		SMTPUseTLS:     cfg.SMTPUseTLS,
		SendGridAPIKey: cfg.SendGridAPIKey,
	})
	errAndDie(err)
	mailer := mail.NewMailer(sender, cfg.MailFromName)

	jwt := util.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.TempTokenTTL)

	authSvc := service.NewAuthService(studentRepo, instructorRepo, denylistRepo, jwt, cfg.GoogleAudience)
	passwordSvc := service.NewPasswordService(studentRepo, jwt, mailer, service.PasswordServiceConfig{
		ChangeOTPTTL: cfg.ChangeOTPTTL,
		ResetOTPTTL:  cfg.ResetOTPTTL,
	})
	passwordSvc.SetReporter(reporter)
	classSvc := service.NewClassService(classRepo, studentRepo)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, submissionRepo)
	submissionSvc := service.NewSubmissionService(assignmentRepo, submissionRepo, storage, service.SubmissionServiceConfig{
		Bucket:            cfg.MinIOBucketSubmissions,
		MaxUploadBytes:    cfg.SubmissionMaxBytes,
		AllowedMIMETypes:  cfg.SubmissionAllowedTypes,
		ImageProcessor:    media.NewImageProcessor(cfg.FFmpegPath, cfg.ImageMaxDimension),
		ImageMaxDimension: cfg.ImageMaxDimension,
	})
	rosterSvc := service.NewRosterImportService(rosterRepo, studentRepo, storage, mailer, service.RosterImportServiceConfig{
		Bucket:       cfg.MinIOBucketImports,
		MaxRows:      cfg.RosterMaxRows,
		MaxFileBytes: cfg.RosterMaxBytes,
	})
	rosterSvc.SetReporter(reporter)

	e := httpapi.NewRouter(cfg.AllowOrigins, reporter)
	httpapi.RegisterPages(e, cfg.MailFromName)
	httpapi.RegisterAuth(e, authSvc)
	httpapi.RegisterPasswords(e, passwordSvc)
	httpapi.RegisterClasses(e, authSvc, classSvc)
	httpapi.RegisterAssignments(e, authSvc, assignmentSvc, submissionSvc)
	httpapi.RegisterRosterImports(e, authSvc, rosterSvc, cfg.RosterMaxBytes)
	httpapi.RegisterSwagger(e, "", cfg.CodeVersion)

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("api: listening on :%s (env=%s)", cfg.Port, cfg.Env)
		serverErrors <- e.Start(":" + cfg.Port)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("api: server error: %v", err)
		}
	case sig := <-shutdown:
		log.Printf("api: %v: start shutdown", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			log.Printf("api: could not stop server gracefully: %v", err)
			if err := e.Close(); err != nil {
				log.Printf("api: could not force stop server: %v", err)
			}
		}
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
