/*
Package desfire speaks the MIFARE DESFire native command set over a byte
transport.

Native frames are [CMD][PARAMS...] and the card answers [STATUS][PAYLOAD...].
A status of 0xAF means the payload continues: the host sends the
AdditionalFrame command (0xAF, no parameters) and concatenates payloads until a
terminal status arrives. Conn implements that loop with a frame bound and a
context check between frames. Session builds the supported operations on top
of it:

	GetApplicationIDs  0x6A                       -> n * 3 byte AIDs
	SelectApplication  0x5A [AID:3]               -> empty
	ReadData           0xBD [file][offset:3 LE][length:3 LE] -> file bytes

PC/SC readers need the ISO 7816-4 wrapping (FramingISO, the default): the
command travels as CLA 0x90 / INS CMD and the status returns in a 91XX trailer.
No authentication is performed, so only files with free read access can be read.
*/
package desfire
