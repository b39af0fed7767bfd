package env

import (
	"log"
	"strconv"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zenv"
)

type EnvStruct struct {
	HOME             string `zog:"HOME"`
	PORT             int    `zog:"DEPLOYER_ENV_PORT"`
	PROJECT_SECRET   string `zog:"PROJECT_SECRET"`
	GITHUB_USER      string `zog:"GITHUB_USER"`
	GIT_AUTHOR_NAME  string `zog:"GIT_AUTHOR_NAME"`
	GIT_AUTHOR_EMAIL string `zog:"GIT_AUTHOR_EMAIL"`
	LISTEN_ADDR      string
	BASE_URL         string
}

var env *EnvStruct

var EnvSchema = z.Struct(z.Shape{
	"HOME":             z.String(),
	"PORT":             z.Int().Default(8000),
	"PROJECT_SECRET":   z.String().Optional(),
	"GITHUB_USER":      z.String().Optional(),
	"GIT_AUTHOR_NAME":  z.String().Optional(),
	"GIT_AUTHOR_EMAIL": z.String().Optional(),
})

func Get() *EnvStruct {
	if env == nil {
		env = &EnvStruct{}
		errs := EnvSchema.Parse(zenv.NewDataProvider(), env)
		if errs != nil {
			log.Fatal("[Deployer] Failed to parse environment variables", errs)
		}

		if env.GIT_AUTHOR_NAME == "" {
			env.GIT_AUTHOR_NAME = env.GITHUB_USER
		}
		env.LISTEN_ADDR = "0.0.0.0:" + strconv.Itoa(env.PORT)
		env.BASE_URL = "http://localhost:" + strconv.Itoa(env.PORT)
	}
	return env
}
