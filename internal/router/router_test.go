package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/email"
	appointmentHandler "github.com/clinicore/clinic-api/internal/handler/appointment"
	authHandler "github.com/clinicore/clinic-api/internal/handler/auth"
	scheduleHandler "github.com/clinicore/clinic-api/internal/handler/schedule"
	"github.com/clinicore/clinic-api/internal/lock"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository/memory"
	appointmentService "github.com/clinicore/clinic-api/internal/service/appointment"
	auditService "github.com/clinicore/clinic-api/internal/service/audit"
	authService "github.com/clinicore/clinic-api/internal/service/auth"
	scheduleService "github.com/clinicore/clinic-api/internal/service/schedule"
	"github.com/clinicore/clinic-api/pkg/auth"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
	"github.com/clinicore/clinic-api/pkg/security"
)

// apiFixture runs the full HTTP stack against the in-memory store, the
// same way cmd/api wires it against Postgres.
type apiFixture struct {
	router *Router
	store  *memory.Store
	tokens *auth.TokenManager
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    errors.Kind `json:"kind"`
		Message string      `json:"message"`
	} `json:"error"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	tokens := auth.NewTokenManager("test-secret", time.Hour, "clinic-api")

	r := NewRouter(log, middleware.NewAuthMiddleware(tokens), Config{
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
		CORS:               middleware.DefaultCORSConfig(),
	})
	m := metrics.NewMetrics("test", r.Registry())

	auditor := auditService.NewService(store.Audits(), log)
	mailer := email.NewService(email.SMTPConfig{}, log)
	locker := lock.NewKeyedLocker(2 * time.Second)

	scheduleSvc := scheduleService.NewService(store.Schedules(), store.Appointments(), store.Doctors(), auditor, m)
	appointmentSvc := appointmentService.NewService(
		store.Appointments(), store.Schedules(), store.Doctors(), store.Patients(),
		locker, mailer, auditor, m, log,
	)
	authSvc := authService.NewService(store.Users(), security.NewBcryptHasher(4), tokens)

	r.AddPublic(authHandler.NewHandler(authSvc))
	r.AddProtected(
		scheduleHandler.NewHandler(scheduleSvc),
		appointmentHandler.NewHandler(appointmentSvc),
	)
	r.Setup()

	return &apiFixture{router: r, store: store, tokens: tokens}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.Engine().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, &env
}

// seedDoctor inserts a doctor profile plus a bookable window and returns
// a signed token for the doctor's user.
func (f *apiFixture) seedDoctor(t *testing.T) (*model.Doctor, *model.AvailabilityWindow, string) {
	t.Helper()

	userID := uuid.New()
	doctor := &model.Doctor{
		Base:           model.Base{ID: uuid.New()},
		UserID:         userID,
		Name:           "Dr. Okafor",
		Specialization: "Cardiology",
		Email:          "okafor@clinic.test",
	}
	require.NoError(t, f.store.Doctors().Create(context.Background(), doctor))

	window := &model.AvailabilityWindow{
		Base:                model.Base{ID: uuid.New()},
		DoctorID:            doctor.ID,
		Date:                time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		StartTime:           "09:00",
		EndTime:             "11:00",
		SlotDurationMinutes: 30,
		MaxPatientsPerSlot:  1,
	}
	require.NoError(t, f.store.Schedules().Create(context.Background(), window))

	token, err := f.tokens.Generate(&model.Actor{ID: userID, Roles: []model.Role{model.RoleDoctor}})
	require.NoError(t, err)
	return doctor, window, token
}

// registerPatient registers through the public API, logs in, and creates
// the matching patient profile.
func (f *apiFixture) registerPatient(t *testing.T, emailAddr string) (*model.Patient, string) {
	t.Helper()

	rec, _ := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    emailAddr,
		"name":     "Pat",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    emailAddr,
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var tok model.TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tok))
	require.NotEmpty(t, tok.AccessToken)

	patient := &model.Patient{
		Base:   model.Base{ID: uuid.New()},
		UserID: tok.Actor.ID,
		Name:   "Pat",
		Email:  emailAddr,
	}
	require.NoError(t, f.store.Patients().Create(context.Background(), patient))
	return patient, tok.AccessToken
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/v1/appointments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.KindUnauthorized, env.Error.Kind)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/appointments", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingFlow(t *testing.T) {
	f := newAPIFixture(t)
	_, window, _ := f.seedDoctor(t)
	_, token := f.registerPatient(t, "flow@clinic.test")

	rec, env := f.do(t, http.MethodPost, "/api/v1/appointments", token, map[string]interface{}{
		"window_id":    window.ID,
		"slot_ordinal": 0,
		"reason":       "checkup",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var booked model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &booked))
	assert.Equal(t, model.AppointmentStatusScheduled, booked.Status)
	assert.Equal(t, window.ID, booked.WindowID)

	// The booked seat shows up in the slot listing.
	rec, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/windows/%s/slots", window.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var slots []*model.SlotAvailability
	require.NoError(t, json.Unmarshal(env.Data, &slots))
	require.Len(t, slots, 4)
	assert.Equal(t, 1, slots[0].BookedCount)

	// Booking the same slot again is a conflict, not a 400.
	rec, env = f.do(t, http.MethodPost, "/api/v1/appointments", token, map[string]interface{}{
		"window_id":    window.ID,
		"slot_ordinal": 0,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.KindDuplicateBooking, env.Error.Kind)

	// Cancel with no body, then confirm the listing shows it cancelled.
	rec, _ = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%s/cancel", booked.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = f.do(t, http.MethodGet, "/api/v1/appointments?status=cancelled", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []*model.AppointmentDetail
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, model.AppointmentStatusCancelled, mine[0].Status)
}

func TestCapabilityGates(t *testing.T) {
	f := newAPIFixture(t)
	_, window, doctorToken := f.seedDoctor(t)
	_, patientToken := f.registerPatient(t, "gates@clinic.test")

	// Doctors do not hold the booking capability.
	rec, env := f.do(t, http.MethodPost, "/api/v1/appointments", doctorToken, map[string]interface{}{
		"window_id":    window.ID,
		"slot_ordinal": 0,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.KindForbidden, env.Error.Kind)

	// Patients do not hold the schedule management capability.
	rec, _ = f.do(t, http.MethodPost, "/api/v1/windows", patientToken, map[string]interface{}{
		"doctor_id":             uuid.New(),
		"date":                  "2026-09-20",
		"start_time":            "09:00",
		"end_time":              "12:00",
		"slot_duration_minutes": 30,
		"max_patients_per_slot": 1,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDoctorManagesOwnSchedule(t *testing.T) {
	f := newAPIFixture(t)
	doctor, _, doctorToken := f.seedDoctor(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/windows", doctorToken, map[string]interface{}{
		"doctor_id":             doctor.ID,
		"date":                  "2026-09-20",
		"start_time":            "13:00",
		"end_time":              "15:00",
		"slot_duration_minutes": 20,
		"max_patients_per_slot": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var created model.AvailabilityWindow
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, doctor.ID, created.DoctorID)
	assert.Equal(t, 6, created.SlotCount())

	rec, env = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/doctors/%s/windows", doctor.ID), doctorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var windows []*model.AvailabilityWindow
	require.NoError(t, json.Unmarshal(env.Data, &windows))
	assert.Len(t, windows, 2)

	// The shortcut listing resolves the doctor from the token.
	rec, env = f.do(t, http.MethodGet, "/api/v1/windows/mine", doctorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []*model.AvailabilityWindow
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.Len(t, mine, 2)
}

func TestRequestIDOnResponses(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	req.Header.Set(middleware.HeaderXRequestID, "caller-supplied-id")
	rec := httptest.NewRecorder()
	f.router.Engine().ServeHTTP(rec, req)
	assert.Equal(t, "caller-supplied-id", rec.Header().Get(middleware.HeaderXRequestID))

	rec, _ = f.do(t, http.MethodGet, "/api/v1/appointments", "", nil)
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderXRequestID))
}

func TestMalformedBodyIsValidationError(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerPatient(t, "badbody@clinic.test")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.router.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
