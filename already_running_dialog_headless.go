//go:build headless

package main

func showAlreadyRunningDialog() {}
