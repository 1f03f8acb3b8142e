package website

import (
	"errors"
	"fmt"
	"net/http"

	"furitingoasis/greenhouse/param"
)

func ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

func (app *Application) home(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(r)
	snap := app.core.Snapshot()
	data.Snapshot = &snap
	app.render(w, r, http.StatusOK, "home.html", data)
}

type settingsForm struct {
	Key       string `form:"key"`
	Value     string `form:"value"`
	Validator `form:"-"`
}

func (app *Application) settings(w http.ResponseWriter, r *http.Request) {
	app.renderSettings(w, r, http.StatusOK, nil)
}

func (app *Application) renderSettings(w http.ResponseWriter, r *http.Request, status int, form *settingsForm) {
	data := app.newTemplateData(r)
	if form != nil {
		data.Form = form
	}
	for _, key := range app.core.Keys() {
		info, err := app.core.Read(key)
		if err != nil {
			app.serverError(w, r, err)
			return
		}
		data.Params = append(data.Params, paramRow{
			Key:    key,
			Value:  info.Value,
			Text:   info.Text,
			Min:    info.Min,
			Max:    info.Max,
			Step:   info.Step,
			Unit:   info.Unit,
			Labels: info.Labels,
		})
	}
	app.render(w, r, status, "settings.html", data)
}

func (app *Application) settingsPost(w http.ResponseWriter, r *http.Request) {
	var form settingsForm
	if err := app.decodePostForm(r, &form); err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	form.CheckField(NotBlank(form.Key), "key", "This field cannot be blank")
	form.CheckField(NotBlank(form.Value), "value", "This field cannot be blank")
	if !form.Valid() {
		form.AddNonFieldError("Choose a setting and a value")
		app.renderSettings(w, r, http.StatusUnprocessableEntity, &form)
		return
	}

	info, err := app.core.Write(form.Key, form.Value)
	if err != nil {
		switch {
		case errors.Is(err, param.ErrUnknownKey):
			app.clientError(w, http.StatusNotFound)
		case errors.Is(err, param.ErrType), errors.Is(err, param.ErrNoLabels):
			form.AddNonFieldError(fmt.Sprintf("%s cannot be set to %q", form.Key, form.Value))
			app.renderSettings(w, r, http.StatusUnprocessableEntity, &form)
		default:
			app.serverError(w, r, err)
		}
		return
	}

	app.logger.Info("setting changed from the web", "key", form.Key, "value", info.Text)
	app.sessionManager.Put(r.Context(), "flash", fmt.Sprintf("%s is now %s", form.Key, info.Text))
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

type userLoginForm struct {
	Email     string `form:"email"`
	Password  string `form:"password"`
	Validator `form:"-"`
}

func (app *Application) userLogin(w http.ResponseWriter, r *http.Request) {
	data := app.newTemplateData(r)
	data.Form = userLoginForm{}
	app.render(w, r, http.StatusOK, "login.html", data)
}

func (app *Application) userLoginPost(w http.ResponseWriter, r *http.Request) {
	var form userLoginForm
	err := app.decodePostForm(r, &form)
	if err != nil {
		app.clientError(w, http.StatusBadRequest)
		return
	}

	form.CheckField(NotBlank(form.Email), "email", "This field cannot be blank")
	form.CheckField(Matches(form.Email, EmailRX), "email", "This field must be a valid email address")
	form.CheckField(NotBlank(form.Password), "password", "This field cannot be blank")
	if !form.Valid() {
		data := app.newTemplateData(r)
		data.Form = form
		app.render(w, r, http.StatusUnprocessableEntity, "login.html", data)
		return
	}

	id, err := app.users.Authenticate(form.Email, form.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			form.AddNonFieldError("Email or password is incorrect")
			data := app.newTemplateData(r)
			data.Form = form
			app.render(w, r, http.StatusUnprocessableEntity, "login.html", data)
		} else {
			app.serverError(w, r, err)
		}
		return
	}
	err = app.sessionManager.RenewToken(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessionManager.Put(r.Context(), authenticatedUserIDKey, id)
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func (app *Application) userLogoutPost(w http.ResponseWriter, r *http.Request) {
	err := app.sessionManager.RenewToken(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.sessionManager.Remove(r.Context(), authenticatedUserIDKey)
	app.sessionManager.Put(r.Context(), "flash", "You've been logged out successfully!")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
