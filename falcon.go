package main

import (
	"os"

	"go.dedis.ch/onet/v3/log"

	"github.com/hhcho/falcon/mpc"
)

// Default config path; e.g., run "FALCON_CONFIG=config/params.toml go run falcon.go"
var CONFIG_PATH = os.Getenv("FALCON_CONFIG")

func main() {
	params := mpc.DefaultParameters()
	if CONFIG_PATH != "" {
		var err error
		params, err = mpc.LoadParameters(CONFIG_PATH)
		if err != nil {
			log.Fatal(err)
		}
	}

	sess, err := mpc.NewSession(params)
	if err != nil {
		log.Fatal(err)
	}
	falcon, err := mpc.NewFalcon(sess)
	if err != nil {
		log.Fatal(err)
	}
	log.LLvl1("session", sess.ID, "ring 2^", sess.GetRingBits(), "mode", sess.GetMode())

	a, err := sess.ShareFloats([]float64{6, -5, 7.5}, []int{3})
	if err != nil {
		log.Fatal(err)
	}
	b, err := sess.ShareFloats([]float64{3, 5, 2.5}, []int{3})
	if err != nil {
		log.Fatal(err)
	}

	prod, err := falcon.Multiply(a, b)
	if err != nil {
		log.Fatal(err)
	}
	out, err := sess.RevealFloats(prod)
	if err != nil {
		log.Fatal(err)
	}
	log.LLvl1("multiply:", out)

	relu, err := falcon.ReLU(a)
	if err != nil {
		log.Fatal(err)
	}
	out, err = sess.RevealFloats(relu)
	if err != nil {
		log.Fatal(err)
	}
	log.LLvl1("relu:", out)

	quot, err := falcon.Divide(a, b)
	if err != nil {
		log.Fatal(err)
	}
	out, err = sess.RevealFloats(quot)
	if err != nil {
		log.Fatal(err)
	}
	log.LLvl1("divide:", out)
}
