package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"sync"
	"time"

	"cbs/src/boot"
	"cbs/src/config"
	"cbs/src/db"
	"cbs/src/engine"
	"cbs/src/middlewares"
	"cbs/src/store"
	"cbs/src/types"
	"cbs/src/utils"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
)

const (
	apiPrefix string = "/api/v1"
)

var slotDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	day, err := time.Parse(config.DATE_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	today, _ := time.Parse(config.DATE_PARSE_FORMAT, time.Now().Format(config.DATE_PARSE_FORMAT))
	return !day.Before(today)
}

var slotTimeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse(config.TIME_PARSE_FORMAT, value)
	return err == nil
}

var gttime validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	end, err := time.Parse(config.TIME_PARSE_FORMAT, value)
	if err != nil {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	fieldValue, ok := field.Interface().(string)
	if !ok {
		return false
	}
	start, err := time.Parse(config.TIME_PARSE_FORMAT, fieldValue)
	if err != nil {
		return false
	}
	return end.After(start)
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("slotdate", slotDateValidatorFunc)
		v.RegisterValidation("slottime", slotTimeValidatorFunc)
		v.RegisterValidation("gttime", gttime)
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func walletAuthRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	guest := apiv1.Group("/auth")
	guest.
		POST("/login", func(ctx *gin.Context) {
			var body types.LoginRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if _, err := utils.UpsertUser(body.Address, body.Email, body.Name); err != nil {
				log.Printf("[AuthLogin] error: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			token, err := utils.GenerateJWT(body.Address, body.Email)
			if err != nil {
				log.Printf("[AuthLogin] error: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"token": token})
		})
	return guest
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveEnvelopes runs the request loop for one socket session. Requests
// carrying a reqId are dispatched concurrently, their responses may come
// back in any order and the caller re-pairs them by token. Requests
// without one are handled inline so their responses leave in the same
// order they arrived. The session's authenticated address rides on the
// dispatch context; handlers never trust identity from the payload.
func serveEnvelopes(conn *websocket.Conn, router *engine.Router, address string) {
	defer conn.Close()
	base := engine.WithAccount(context.Background(), address)
	var writeMu sync.Mutex
	send := func(res types.ResponseEnvelope) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(res); err != nil {
			log.Printf("Error writing to socket: %s\n", err.Error())
		}
	}
	for {
		var req types.RequestEnvelope
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("socket closed: %s\n", err.Error())
			}
			return
		}
		if req.ReqID != "" {
			go func(req types.RequestEnvelope) {
				send(router.Dispatch(base, req))
			}(req)
			continue
		}
		send(router.Dispatch(base, req))
	}
}

func setupSocketServer(r *gin.Engine, router *engine.Router) {
	r.GET("/ws", middlewares.AuthMiddleware, func(ctx *gin.Context) {
		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			log.Printf("Error upgrading connection: %s\n", err.Error())
			return
		}
		go serveEnvelopes(conn, router, ctx.GetString("address"))
	})
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	boot.InitScheduler()
	go boot.InitBroker()

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	registerValidators()

	walletAuthRoutes(router)

	gdb := db.GetDb()
	resolver := newResolver(gdb)
	eng := buildRouter(store.NewCourtStore(gdb), resolver)
	setupSocketServer(router, eng)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	{
		courtHandlers(authorized)
		bookingHandlers(authorized, resolver)
	}

	if err := router.Run(":9090"); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}
