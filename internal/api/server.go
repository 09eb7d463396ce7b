package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/Spok95/omr-grader/internal/grading"
	"github.com/Spok95/omr-grader/internal/logging"
	"github.com/Spok95/omr-grader/internal/metrics"
)

// Scorer — конвейер проверки скана.
type Scorer interface {
	Score(ctx context.Context, teacherID int64, req grading.ScoreRequest) (*grading.Scored, error)
}

type Deps struct {
	Store     Store
	Scorer    Scorer
	JWTSecret string
	// StorageDir раздаётся как /storage (сканы и отладочные картинки)
	StorageDir string
	Log        *logging.Log
	// BodyLimit — максимальный размер запроса (скан), байт
	BodyLimit int
}

type Server struct {
	app       *fiber.App
	store     Store
	scorer    Scorer
	jwtSecret string
	log       *logging.Log
}

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	if d.BodyLimit <= 0 {
		d.BodyLimit = 20 << 20
	}
	s := &Server{store: d.Store, scorer: d.Scorer, jwtSecret: d.JWTSecret, log: d.Log}

	s.app = fiber.New(fiber.Config{
		AppName:               "omr-grader",
		BodyLimit:             d.BodyLimit,
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
		ReadTimeout:           2 * time.Minute,
		WriteTimeout:          2 * time.Minute,
	})
	s.app.Use(requestID, s.requestLogger, s.recoverer)
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		ExposeHeaders: headerRequestID,
	}))

	s.app.Get("/healthz", s.healthz)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	if d.StorageDir != "" {
		s.app.Static("/storage", d.StorageDir, fiber.Static{Browse: false})
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api", s.requireTeacher)

	classrooms := api.Group("/classrooms")
	classrooms.Get("/", s.listClassrooms)
	classrooms.Post("/", s.createClassroom)
	classrooms.Get("/:id", s.showClassroom)
	classrooms.Put("/:id", s.updateClassroom)
	classrooms.Delete("/:id", s.deleteClassroom)

	students := api.Group("/students")
	students.Get("/", s.listStudents)
	students.Post("/", s.createStudent)
	students.Get("/:id", s.showStudent)

	exams := api.Group("/exams")
	exams.Get("/", s.listExams)
	exams.Post("/", s.createExam)
	exams.Get("/:id", s.showExam)
	exams.Put("/:id", s.updateExam)
	exams.Delete("/:id", s.deleteExam)
	exams.Post("/:id/questions", s.replaceQuestions)
	exams.Get("/:id/results/export", s.exportResults)
	exams.Get("/:id/stats", s.examStats)

	results := api.Group("/results")
	results.Get("/", s.listResults)
	results.Post("/", s.scoreScan)
	results.Get("/:id", s.showResult)
}

// App — для тестов (app.Test).
func (s *Server) App() *fiber.App { return s.app }

// Run слушает addr до отмены ctx, затем аккуратно завершает соединения.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listen(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(10 * time.Second)
	}
}

func (s *Server) healthz(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := s.store.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("db not ok: " + err.Error())
	}
	metrics.ObserveDBPing(time.Since(t0))
	return c.SendString("ok")
}
