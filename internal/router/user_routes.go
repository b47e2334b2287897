package router

import (
	"net/http"

	"github.com/aminshahid573/authapi/internal/urls"
)

// profileRoute serves the signed-in user's profile.
func profileRoute(u UserViews, g guards) urls.Entry {
	return urls.Path("profile/", g.authenticate(urls.Methods{
		http.MethodGet:   http.HandlerFunc(u.GetProfile),
		http.MethodPatch: http.HandlerFunc(u.UpdateProfile),
	}), "user_profile")
}

func redirectRoute(u UserViews, g guards) urls.Entry {
	return urls.Path("~redirect/", g.authenticate(urls.Methods{
		http.MethodGet: http.HandlerFunc(u.Redirect),
	}), "redirect")
}
