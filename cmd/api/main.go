package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/assignment"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/grade"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/structure"
	appHTTP "github.com/cmlabs-hris/hris-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/memory"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	assignmentService "github.com/cmlabs-hris/hris-payroll-go/internal/service/assignment"
	auditService "github.com/cmlabs-hris/hris-payroll-go/internal/service/audit"
	masterService "github.com/cmlabs-hris/hris-payroll-go/internal/service/master"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/service/statutory"
	structureService "github.com/cmlabs-hris/hris-payroll-go/internal/service/structure"
	"github.com/go-chi/httplog/v3"
)

type repositories struct {
	tx         database.Transactor
	structure  structure.StructureRepository
	assignment assignment.AssignmentRepository
	grade      grade.GradeRepository
	employee   employee.EmployeeRepository
	payroll    payroll.PayrollRepository
	attendance attendance.Source
	audit      audit.Sink
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize storage", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	rules, err := statutoryRules(cfg.Payroll)
	if err != nil {
		slog.Error("invalid statutory configuration", "error", err)
		os.Exit(1)
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	auditLog := auditService.NewRecorder(repos.audit)

	calculator := payrollService.NewCalculator(
		repos.assignment,
		repos.structure,
		repos.attendance,
		structureService.NewResolver(),
		rules,
		payrollService.CalculatorConfig{
			Workers:    cfg.Payroll.Workers,
			MinorUnits: cfg.Payroll.MinorUnits,
		},
	)
	masterSvc := masterService.NewMasterService(repos.grade, auditLog)
	structureSvc := structureService.NewStructureService(repos.tx, repos.structure, repos.grade, auditLog)
	assignmentSvc := assignmentService.NewAssignmentService(repos.tx, repos.assignment, repos.structure, repos.grade, repos.employee, auditLog)
	payrollSvc := payrollService.NewPayrollService(repos.tx, repos.payroll, repos.employee, repos.attendance, calculator, auditLog)

	scheduler := cron.NewScheduler()
	cron.NewPayrollJobs(repos.tx, repos.payroll, auditLog, cfg.Payroll.StaleRunAfter).RegisterJobs(scheduler, cfg.Payroll.SweepInterval)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:             logger,
			LogLevel:           cfg.SlogLevel(),
			CORSAllowedOrigins: cfg.App.CORSAllowedOrigins,
		},
		JWTService,
		appHTTP.NewMasterHandler(masterSvc),
		appHTTP.NewStructureHandler(structureSvc),
		appHTTP.NewAssignmentHandler(assignmentSvc),
		appHTTP.NewPayrollHandler(payrollSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server running", "addr", server.Addr, "storage", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func openRepositories(ctx context.Context, cfg *config.Config) (repositories, error) {
	switch cfg.Database.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		slog.Warn("using in-memory storage; data is lost on restart")
		return repositories{
			tx:         memory.NewTransactor(store),
			structure:  memory.NewStructureRepository(store),
			assignment: memory.NewAssignmentRepository(store),
			grade:      memory.NewGradeRepository(store),
			employee:   memory.NewEmployeeRepository(store),
			payroll:    memory.NewPayrollRepository(store),
			attendance: memory.NewAttendanceSource(store),
			audit:      memory.NewAuditSink(store),
			close:      func() {},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return repositories{}, fmt.Errorf("connect to database: %w", err)
		}
		if cfg.Database.Migrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return repositories{}, err
			}
		}
		return repositories{
			tx:         postgresql.NewTransactor(db),
			structure:  postgresql.NewStructureRepository(db),
			assignment: postgresql.NewAssignmentRepository(db),
			grade:      postgresql.NewGradeRepository(db),
			employee:   postgresql.NewEmployeeRepository(db),
			payroll:    postgresql.NewPayrollRepository(db),
			attendance: postgresql.NewAttendanceSource(db),
			audit:      postgresql.NewAuditSink(db),
			close:      db.Close,
		}, nil
	}
}

func statutoryRules(cfg config.PayrollConfig) ([]payroll.StatutoryRule, error) {
	tds, err := statutory.ParseSlabs(cfg.TDSSlabs)
	if err != nil {
		return nil, fmt.Errorf("TDS_SLABS: %w", err)
	}
	pt, err := statutory.ParseSlabs(cfg.PTSlabs)
	if err != nil {
		return nil, fmt.Errorf("PT_SLABS: %w", err)
	}
	return statutory.NewRuleSet(statutory.Config{
		PFRate:            cfg.PFRate,
		PFWageCeiling:     cfg.PFWageCeiling,
		ESIRate:           cfg.ESIRate,
		ESIGrossThreshold: cfg.ESIGrossThreshold,
		TDSSlabs:          tds,
		PTSlabs:           pt,
	}), nil
}
