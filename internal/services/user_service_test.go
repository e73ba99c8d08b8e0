package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/mailer"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/pkg/jwt"
)

type failingMailer struct{}

func (failingMailer) Send(ctx context.Context, msg mailer.Message) error {
	return errors.New("smtp unavailable")
}

func (f *fixture) users(mail mailer.Mailer, adminKey string) *userService {
	svc := NewUserService(f.repo, f.cache, f.publisher, mail, jwt.NewManager("test-secret", time.Hour, "test"),
		f.logger, f.validator, UserServiceConfig{AdminSecretKey: adminKey, VerificationTTL: time.Hour})
	return svc.(*userService)
}

func TestUserService_RegisterVerifyLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mail := mailer.NewConsoleMailer("Test", f.logger)
	svc := f.users(mail, "")

	user, err := svc.Register(ctx, &models.RegisterRequest{
		Name:     "Lucía",
		Email:    "Lucia@Example.com",
		Password: "contraseña-segura",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.False(t, user.IsVerified)
	assert.Equal(t, models.DefaultPhotoURL, user.Photo)

	sent := mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "lucia@example.com", sent[0].To)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, &models.RegisterRequest{Name: "Otra", Email: "lucia@example.com", Password: "12345678"})
		require.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, MsgEmailTaken, err.Error())
	})

	t.Run("login before verification", func(t *testing.T) {
		_, err := svc.Login(ctx, &models.LoginRequest{Email: "lucia@example.com", Password: "contraseña-segura"})
		require.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, MsgVerifyFirst, err.Error())
	})

	t.Run("wrong code", func(t *testing.T) {
		_, err := svc.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: "lucia@example.com", VerificationCode: "000000x"})
		require.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, MsgInvalidCode, err.Error())
	})

	stored, err := f.repo.User().GetByEmail(ctx, "lucia@example.com")
	require.NoError(t, err)

	verified, err := svc.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: "lucia@example.com", VerificationCode: stored.VerificationCode})
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.Empty(t, verified.VerificationCode)

	t.Run("code cannot be reused", func(t *testing.T) {
		_, err := svc.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: "lucia@example.com", VerificationCode: stored.VerificationCode})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("bad password", func(t *testing.T) {
		_, err := svc.Login(ctx, &models.LoginRequest{Email: "lucia@example.com", Password: "otra-cosa"})
		require.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, MsgInvalidCredentials, err.Error())
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, &models.LoginRequest{Email: "nadie@example.com", Password: "otra-cosa"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	resp, err := svc.Login(ctx, &models.LoginRequest{Email: "lucia@example.com", Password: "contraseña-segura"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	claims, err := jwt.NewManager("test-secret", time.Hour, "test").ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "student", claims.Role)

	assert.Len(t, f.publisher.EventsOfType(events.UserRegistered), 1)
	assert.Len(t, f.publisher.EventsOfType(events.UserVerified), 1)
}

func TestUserService_RegisterRollsBackOnMailFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.users(failingMailer{}, "")

	_, err := svc.Register(ctx, &models.RegisterRequest{Name: "Mario", Email: "mario@example.com", Password: "12345678"})
	require.Error(t, err)

	exists, err := f.repo.User().ExistsByEmail(ctx, "mario@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Empty(t, f.publisher.GetPublishedEvents())
}

func TestUserService_VerifyExpiredCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mail := mailer.NewConsoleMailer("Test", f.logger)
	svc := f.users(mail, "")

	_, err := svc.Register(ctx, &models.RegisterRequest{Name: "Pedro", Email: "pedro@example.com", Password: "12345678"})
	require.NoError(t, err)
	stored, err := f.repo.User().GetByEmail(ctx, "pedro@example.com")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.VerifyEmail(ctx, &models.VerifyEmailRequest{Email: "pedro@example.com", VerificationCode: stored.VerificationCode})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, MsgInvalidCode, err.Error())
}

func TestUserService_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	req := &models.CreateAdminRequest{SecretKey: "llave", Name: "Admin", Email: "admin@example.com", Password: "12345678"}

	tests := []struct {
		name      string
		configKey string
		givenKey  string
		wantErr   error
	}{
		{name: "matching key", configKey: "llave", givenKey: "llave"},
		{name: "wrong key", configKey: "llave", givenKey: "otra", wantErr: ErrForbidden},
		{name: "unset key denies", configKey: "", givenKey: "", wantErr: ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := f.users(mailer.NewConsoleMailer("Test", f.logger), tt.configKey)

			r := *req
			r.SecretKey = tt.givenKey
			admin, err := svc.CreateAdmin(ctx, &r)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, MsgAdminKeyDenied, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.RoleAdmin, admin.Role)
			assert.True(t, admin.IsVerified)
		})
	}
}

func TestUserService_ChangeRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.users(mailer.NewConsoleMailer("Test", f.logger), "")

	admin := f.addUser(t, "admin", models.RoleAdmin)
	prof := f.addUser(t, "prof", models.RoleInstructor)
	student := f.addUser(t, "student", models.RoleStudent)

	updated, err := svc.ChangeRole(ctx, admin.ID, student.ID, &models.ChangeRoleRequest{Role: models.RoleCatedratico})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCatedratico, updated.Role)
	assert.Len(t, f.publisher.EventsOfType(events.UserRoleChanged), 1)

	_, err = svc.ChangeRole(ctx, prof.ID, student.ID, &models.ChangeRoleRequest{Role: models.RoleInstructor})
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, MsgNoRolePermission, err.Error())

	_, err = svc.ChangeRole(ctx, admin.ID, student.ID, &models.ChangeRoleRequest{Role: models.RoleAdmin})
	require.ErrorIs(t, err, ErrValidationFailed)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, MsgInvalidRole, verr.Message)

	_, err = svc.ChangeRole(ctx, admin.ID, admin.ID, &models.ChangeRoleRequest{Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, MsgLastAdmin, err.Error())
}

func TestUserService_DeleteAdminFloor(t *testing.T) {
	ctx := context.Background()

	t.Run("last admin cannot be deleted", func(t *testing.T) {
		f := newFixture(t)
		svc := f.users(mailer.NewConsoleMailer("Test", f.logger), "")
		admin := f.addUser(t, "admin", models.RoleAdmin)

		err := svc.Delete(ctx, admin.ID, admin.ID)
		require.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, MsgLastAdmin, err.Error())

		_, err = f.repo.User().GetByID(ctx, admin.ID)
		assert.NoError(t, err)
	})

	t.Run("non-last admin can be deleted", func(t *testing.T) {
		f := newFixture(t)
		svc := f.users(mailer.NewConsoleMailer("Test", f.logger), "")
		first := f.addUser(t, "first", models.RoleAdmin)
		second := f.addUser(t, "second", models.RoleAdmin)

		require.NoError(t, svc.Delete(ctx, first.ID, second.ID))
		_, err := f.repo.User().GetByID(ctx, second.ID)
		assert.Error(t, err)
	})

	t.Run("non-admin is deleted with memberships", func(t *testing.T) {
		f := newFixture(t)
		svc := f.users(mailer.NewConsoleMailer("Test", f.logger), "")
		admin := f.addUser(t, "admin", models.RoleAdmin)
		student := f.addUser(t, "student", models.RoleStudent)
		courseID := f.addCourse(t, "Latín", "")
		_, err := f.coordinator().Enroll(ctx, courseID, student.ID)
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, admin.ID, student.ID))
		assert.Empty(t, f.roster(t, courseID).Students)
		assert.Len(t, f.publisher.EventsOfType(events.UserDeleted), 1)
	})

	t.Run("non-admin actor is forbidden", func(t *testing.T) {
		f := newFixture(t)
		svc := f.users(mailer.NewConsoleMailer("Test", f.logger), "")
		f.addUser(t, "admin", models.RoleAdmin)
		student := f.addUser(t, "student", models.RoleStudent)
		other := f.addUser(t, "other", models.RoleStudent)

		err := svc.Delete(ctx, student.ID, other.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestUserService_ChangeRoleRefreshesCachedRosters(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newFixture(t)
	f.cache = cache.NewCacheManager(client, time.Minute)
	svc := f.users(mailer.NewConsoleMailer("Test", f.logger), "")
	courses := f.courses()

	admin := f.addUser(t, "admin", models.RoleAdmin)
	prof := f.addUser(t, "prof", models.RoleInstructor)
	student := f.addUser(t, "student", models.RoleStudent)
	courseID := f.addCourse(t, "Cálculo", prof.ID)
	_, err := f.coordinator().Enroll(ctx, courseID, student.ID)
	require.NoError(t, err)

	detail, err := courses.GetByID(ctx, courseID)
	require.NoError(t, err)
	require.Len(t, detail.Students, 1)
	assert.Equal(t, models.RoleStudent, detail.Students[0].Role)
	_, err = courses.UserCourses(ctx, prof.ID)
	require.NoError(t, err)

	_, err = svc.ChangeRole(ctx, admin.ID, student.ID, &models.ChangeRoleRequest{Role: models.RoleCatedratico})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.CourseCacheConfig.Prefix+cache.CourseDetailKey(courseID)))
	assert.False(t, mr.Exists(cache.UserCacheConfig.Prefix+cache.UserCoursesKey(prof.ID)))

	detail, err = courses.GetByID(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCatedratico, detail.Students[0].Role)
}

func TestUserService_DeleteAdminsConcurrently(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.users(mailer.NewConsoleMailer("Test", f.logger), "")

	first := f.addUser(t, "first", models.RoleAdmin)
	second := f.addUser(t, "second", models.RoleAdmin)

	// each admin removes themselves; only one may go through
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			errs[i] = svc.Delete(ctx, id, id)
		}(i, id)
	}
	wg.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], ErrConflict)
	assert.Equal(t, MsgLastAdmin, failures[0].Error())

	admins, err := f.repo.User().LockIDsByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}
