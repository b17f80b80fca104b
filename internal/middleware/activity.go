package middleware

import (
	"log"
	"net/http"

	"github.com/convoke/convoke-api/internal/database"
)

// ActivityTracking records last-seen timestamps for authenticated requests
func ActivityTracking(userRepo *database.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r)
			if user != nil {
				if err := userRepo.TouchLastSeen(r.Context(), user.ID); err != nil {
					log.Printf("Failed to update user activity: %v", err)
					// Don't fail the request if activity tracking fails
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
